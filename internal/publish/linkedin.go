package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"postpilot/internal/content"
	"postpilot/pkg/logx"
)

type LinkedInConfig struct {
	AccessToken string
	PersonURN   string
	BaseURL     string // override for tests; defaults to the public API host
	APIVersion  string // LinkedIn-Version header, e.g. "202405"
	RatePerMin  int    // outbound post budget; 0 means a conservative default
	Timeout     time.Duration
}

// LinkedIn publishes through the REST Posts API (POST /rest/posts with a
// commentary payload). Media upload is not wired; a MediaRef carrying an
// already-registered URN is attached as-is.
type LinkedIn struct {
	cfg    LinkedInConfig
	client *http.Client
	lim    *rate.Limiter
	log    logx.Logger
}

func NewLinkedIn(cfg LinkedInConfig, log logx.Logger) (*LinkedIn, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("linkedin: access token is required")
	}
	if strings.TrimSpace(cfg.PersonURN) == "" {
		return nil, errors.New("linkedin: person urn is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.linkedin.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "202405"
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &LinkedIn{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		lim:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMin)), 1),
		log:    log,
	}, nil
}

func (p *LinkedIn) Name() string { return "linkedin" }

type linkedinPost struct {
	Author     string         `json:"author"`
	Commentary string         `json:"commentary"`
	Visibility string         `json:"visibility"`
	Content    map[string]any `json:"content,omitempty"`
}

func (p *LinkedIn) Publish(ctx context.Context, c content.Content) (bool, error) {
	if err := p.lim.Wait(ctx); err != nil {
		return false, errors.Wrap(err, "linkedin: rate wait")
	}

	payload := linkedinPost{
		Author:     p.cfg.PersonURN,
		Commentary: Body(c),
		Visibility: "PUBLIC",
	}
	if c.MediaRef != "" {
		payload.Content = map[string]any{"media": map[string]any{"id": c.MediaRef}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, errors.Wrap(err, "linkedin: encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/rest/posts", bytes.NewReader(body))
	if err != nil {
		return false, errors.Wrap(err, "linkedin: build request")
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("LinkedIn-Version", p.cfg.APIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "linkedin: post")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		p.log.Info("published to linkedin", logx.String("topic", c.Topic))
		return true, nil
	}

	// A definite rejection from the platform, not a transport fault.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	p.log.Warn("linkedin rejected post",
		logx.Int("status", resp.StatusCode),
		logx.String("topic", c.Topic),
		logx.String("response", string(detail)),
	)
	return false, nil
}
