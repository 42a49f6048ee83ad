// Package content defines the content-generation contract consumed by the
// execution pipeline, plus the built-in template generator.
package content

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrGeneration marks any failure to produce post content. The pipeline maps
// it to the "error" status for the one job and never retries automatically.
var ErrGeneration = errors.New("content generation failed")

// Content is one ready-to-publish post body.
type Content struct {
	Topic    string
	Text     string
	Hashtags []string
	// MediaRef optionally points at an already-prepared media asset
	// (a local file path or an upload URN, backend-dependent).
	MediaRef string
}

// Generator turns a topic into post content.
type Generator interface {
	Generate(ctx context.Context, topic string) (Content, error)
}

// FromText wraps a pre-supplied body; generation is skipped for such jobs.
func FromText(topic, text string) Content {
	return Content{Topic: topic, Text: text}
}
