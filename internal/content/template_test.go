package content

import (
	"context"
	"strings"
	"testing"
)

func TestTemplateGeneratorKnownTopic(t *testing.T) {
	g := NewTemplate(TemplateConfig{}, 1)
	c, err := g.Generate(context.Background(), "Technology Trends")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Topic != "Technology Trends" {
		t.Fatalf("topic = %q", c.Topic)
	}
	if !strings.Contains(c.Text, "technology trends") {
		t.Fatalf("known topic should use its template: %q", c.Text)
	}
	if len(c.Hashtags) != 0 {
		t.Fatal("hashtags are off by default")
	}
}

func TestTemplateGeneratorFallbackTemplate(t *testing.T) {
	g := NewTemplate(TemplateConfig{}, 1)
	c, err := g.Generate(context.Background(), "quantum knitting")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(c.Text, "quantum knitting") {
		t.Fatalf("fallback template should mention the topic: %q", c.Text)
	}
}

func TestTemplateGeneratorHashtags(t *testing.T) {
	g := NewTemplate(TemplateConfig{IncludeHashtags: true, MaxHashtags: 3}, 1)
	c, err := g.Generate(context.Background(), "AI in production")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(c.Hashtags) == 0 || len(c.Hashtags) > 3 {
		t.Fatalf("hashtags = %v, want 1..3", c.Hashtags)
	}
	for _, h := range c.Hashtags {
		if !strings.HasPrefix(h, "#") {
			t.Fatalf("hashtag %q missing #", h)
		}
	}
}

func TestTemplateGeneratorTopicPool(t *testing.T) {
	g := NewTemplate(TemplateConfig{Topics: []string{"only topic"}}, 1)
	c, err := g.Generate(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Topic != "only topic" {
		t.Fatalf("blank topic should draw from the pool: %q", c.Topic)
	}
}

func TestTemplateGeneratorEmptyTopicNoPool(t *testing.T) {
	g := NewTemplate(TemplateConfig{}, 1)
	if _, err := g.Generate(context.Background(), ""); err == nil {
		t.Fatal("empty topic with no pool should fail")
	}
}

func TestHashtagsFamilyMatch(t *testing.T) {
	tags := Hashtags("my software project", 10)
	if len(tags) == 0 {
		t.Fatal("software family should match")
	}
	joined := strings.Join(tags, " ")
	if !strings.Contains(joined, "#SoftwareDevelopment") {
		t.Fatalf("got %v", tags)
	}

	generic := Hashtags("gardening", 2)
	if len(generic) != 2 {
		t.Fatalf("max should cap the list: %v", generic)
	}
}
