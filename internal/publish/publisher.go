// Package publish delivers finished content to a social platform.
//
// The scheduler core consumes the Publisher contract only; backends are
// selected by config driver the same way the history store picks its
// driver. A (false, nil) result means the platform rejected the post
// (job becomes "failed"); a non-nil error means the attempt itself blew
// up (job becomes "error").
package publish

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"postpilot/internal/content"
	"postpilot/pkg/logx"
)

type Publisher interface {
	Name() string
	Publish(ctx context.Context, c content.Content) (bool, error)
}

// Config selects and configures the publish backend.
//
// Driver values:
//   - "" or "log": dry-run publisher that only logs the post (default)
//   - "linkedin":  LinkedIn REST Posts API
//   - "telegram":  post to a Telegram channel/chat
type Config struct {
	Driver   string
	LinkedIn LinkedInConfig
	Telegram TelegramConfig
}

func Open(cfg Config, log logx.Logger) (Publisher, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "log", "dry-run":
		return NewLog(log), nil
	case "linkedin":
		return NewLinkedIn(cfg.LinkedIn, log)
	case "telegram":
		return NewTelegram(cfg.Telegram, log)
	default:
		return nil, errors.Newf("unknown publish driver: %s", cfg.Driver)
	}
}

// Body renders the final post text: content plus hashtags on their own
// paragraph, the way the LinkedIn composer expects them.
func Body(c content.Content) string {
	if len(c.Hashtags) == 0 {
		return c.Text
	}
	return c.Text + "\n\n" + strings.Join(c.Hashtags, " ")
}

// logPublisher is the default backend: it "publishes" to the log and
// always succeeds. Useful for rehearsing a schedule before wiring real
// credentials.
type logPublisher struct {
	log logx.Logger
}

func NewLog(log logx.Logger) Publisher { return &logPublisher{log: log} }

func (p *logPublisher) Name() string { return "log" }

func (p *logPublisher) Publish(_ context.Context, c content.Content) (bool, error) {
	p.log.Info("dry-run publish",
		logx.String("topic", c.Topic),
		logx.Int("hashtags", len(c.Hashtags)),
		logx.String("body", Body(c)),
	)
	return true, nil
}
