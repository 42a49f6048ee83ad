// Package config loads postpilot's single YAML (or JSON) config file with a
// strict decoder: unknown keys are rejected so typos fail loudly at startup
// instead of silently disabling features.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"postpilot/internal/content"
	"postpilot/pkg/logx"
)

type Config struct {
	Log       logx.Config            `json:"log"`
	Store     StoreConfig            `json:"store"`
	Scheduler SchedulerConfig        `json:"scheduler"`
	Generator content.TemplateConfig `json:"generator"`
	Publisher PublisherConfig        `json:"publisher"`
	Journal   JournalConfig          `json:"journal"`
	History   HistoryConfig          `json:"history"`
}

type StoreConfig struct {
	// Path of the JSON job document shared with other processes.
	Path string `json:"path"`
}

type SchedulerConfig struct {
	// Durations are strings ("30s", "5m") parsed after decode.
	PollInterval   string `json:"poll_interval"`
	StatusInterval string `json:"status_interval"`
	ShutdownWait   string `json:"shutdown_wait"`
	// WatchStore additionally watches the store file for instant pickup;
	// nil means enabled. Polling stays on either way.
	WatchStore *bool `json:"watch_store"`
}

type PublisherConfig struct {
	Driver   string         `json:"driver"`
	LinkedIn LinkedInConfig `json:"linkedin"`
	Telegram TelegramConfig `json:"telegram"`
}

type LinkedInConfig struct {
	AccessToken string `json:"access_token"`
	PersonURN   string `json:"person_urn"`
	BaseURL     string `json:"base_url"`
	APIVersion  string `json:"api_version"`
	RatePerMin  int    `json:"rate_per_min"`
	Timeout     string `json:"timeout"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

type JournalConfig struct {
	Dir string `json:"dir"`
}

type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`
}

// Default returns the config used when no file exists: dry-run publishing
// against ./scheduled_posts.json, console logging, no history DB.
func Default() *Config {
	return &Config{
		Log:   logx.Config{Level: "info", Console: true},
		Store: StoreConfig{Path: "./scheduled_posts.json"},
	}
}

// Load reads and strictly decodes the file at path. A missing file yields
// Default() so the CLI works out of the box.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	jb, err := decodeBytes(path, b)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.Newf("decode config %s: trailing data", path)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./scheduled_posts.json"
	}
	return cfg, nil
}

// ---- Parsed accessors ----

func (c SchedulerConfig) Poll() (time.Duration, error) {
	return parseDuration("scheduler.poll_interval", c.PollInterval, 30*time.Second)
}

func (c SchedulerConfig) Status() (time.Duration, error) {
	return parseDuration("scheduler.status_interval", c.StatusInterval, 5*time.Minute)
}

func (c SchedulerConfig) Shutdown() (time.Duration, error) {
	return parseDuration("scheduler.shutdown_wait", c.ShutdownWait, 30*time.Second)
}

func (c SchedulerConfig) Watch() bool {
	return c.WatchStore == nil || *c.WatchStore
}

func (c LinkedInConfig) RequestTimeout() (time.Duration, error) {
	return parseDuration("publisher.linkedin.timeout", c.Timeout, 30*time.Second)
}

func (c HistoryConfig) Busy() (time.Duration, error) {
	return parseDuration("history.busy_timeout", c.BusyTimeout, 0)
}
