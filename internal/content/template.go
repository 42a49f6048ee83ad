package content

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// TemplateConfig controls the built-in generator.
type TemplateConfig struct {
	IncludeHashtags bool `json:"include_hashtags"`
	MaxHashtags     int  `json:"max_hashtags"`
	// Topics is the pool drawn from when a job carries no topic.
	Topics []string `json:"topics"`
}

// TemplateGenerator produces posts from canned per-topic-family templates.
// It never fails for a non-empty topic, which makes it the safe default
// backend when no external generator is configured.
type TemplateGenerator struct {
	cfg TemplateConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewTemplate(cfg TemplateConfig, seed int64) *TemplateGenerator {
	if cfg.MaxHashtags <= 0 {
		cfg.MaxHashtags = 5
	}
	return &TemplateGenerator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

var templates = map[string]string{
	"technology trends":        "Exploring the latest technology trends that are shaping our industry. What innovations are you most excited about?",
	"professional development": "Continuous learning is key to professional growth. What skills are you developing this year?",
}

const defaultTemplate = "Reflecting on the importance of staying current in our ever-evolving professional landscape. What's your take on %s?"

var hashtagFamilies = map[string][]string{
	"ai":       {"#AI", "#MachineLearning", "#TechTrends", "#Innovation", "#DataScience"},
	"software": {"#SoftwareDevelopment", "#Programming", "#Coding", "#TechCommunity", "#DevLife"},
	"career":   {"#CareerGrowth", "#ProfessionalDevelopment", "#Leadership", "#Success", "#Networking"},
	"industry": {"#Industry", "#Business", "#Trends", "#Innovation", "#Strategy"},
	"tech":     {"#TechNews", "#Technology", "#Innovation", "#DigitalTransformation", "#Future"},
	"":         {"#Professional", "#Growth", "#Innovation", "#Success"},
}

func (g *TemplateGenerator) Generate(ctx context.Context, topic string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = g.pickTopic()
	}
	if topic == "" {
		return Content{}, ErrGeneration
	}

	text, ok := templates[strings.ToLower(topic)]
	if !ok {
		text = strings.Replace(defaultTemplate, "%s", topic, 1)
	}

	c := Content{Topic: topic, Text: text}
	if g.cfg.IncludeHashtags {
		c.Hashtags = Hashtags(topic, g.cfg.MaxHashtags)
	}
	return c, nil
}

func (g *TemplateGenerator) pickTopic() string {
	if len(g.cfg.Topics) == 0 {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg.Topics[g.rng.Intn(len(g.cfg.Topics))]
}

// Hashtags returns up to max static hashtags for the topic's family.
func Hashtags(topic string, max int) []string {
	t := strings.ToLower(topic)
	tags := hashtagFamilies[""]
	for key, family := range hashtagFamilies {
		if key != "" && strings.Contains(t, key) {
			tags = family
			break
		}
	}
	if max > 0 && len(tags) > max {
		tags = tags[:max]
	}
	return append([]string(nil), tags...)
}
