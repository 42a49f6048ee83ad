package publish

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	tele "gopkg.in/telebot.v4"

	"postpilot/internal/content"
	"postpilot/pkg/logx"
)

type TelegramConfig struct {
	Token  string
	ChatID int64 // channel or group the posts go to
}

// Telegram posts to a channel through the bot API. Send-only: the bot is
// never started, so no update polling happens.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
	log    logx.Logger
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram: chat_id is required")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, errors.Wrap(err, "telegram: init bot")
	}
	return &Telegram{bot: b, chatID: cfg.ChatID, log: log}, nil
}

func (p *Telegram) Name() string { return "telegram" }

func (p *Telegram) Publish(_ context.Context, c content.Content) (bool, error) {
	_, err := p.bot.Send(tele.ChatID(p.chatID), Body(c), &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return false, errors.Wrap(err, "telegram: send")
	}
	p.log.Info("published to telegram", logx.String("topic", c.Topic), logx.Int64("chat_id", p.chatID))
	return true, nil
}
