package telegram

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// BotOptions configure how the bot receives updates.
// An empty WebhookURL selects long polling.
type BotOptions struct {
	Token       string
	PollTimeout time.Duration
	WebhookURL  string
}

// NewBot creates the telebot instance. In webhook mode the webhook is
// registered with Telegram before returning, and updates are fed through
// WebhookHandler instead of the poller.
func NewBot(opts BotOptions, logger *logrus.Entry) (*telebot.Bot, error) {
	var poller telebot.Poller = &telebot.LongPoller{Timeout: opts.PollTimeout}
	if opts.WebhookURL != "" {
		poller = idlePoller{}
	}

	pref := telebot.Settings{
		Token:  opts.Token,
		Poller: poller,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.WithError(err)
			if c != nil {
				if c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				if c.Chat() != nil {
					entry = entry.WithField("chat_id", c.Chat().ID)
				}
				if c.Callback() != nil {
					entry = entry.WithField("callback", c.Callback().Unique)
				} else if c.Text() != "" {
					entry = entry.WithField("text", c.Text())
				}
			}
			entry.Error("Telegram handler error")
		},
	}
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}

	mode := "polling"
	if opts.WebhookURL != "" {
		webhook := &telebot.Webhook{
			Endpoint: &telebot.WebhookEndpoint{PublicURL: opts.WebhookURL},
		}
		if err := b.SetWebhook(webhook); err != nil {
			return nil, fmt.Errorf("could not set Telegram webhook: %w", err)
		}
		mode = "webhook"
	}
	logger.WithFields(logrus.Fields{
		"username": b.Me.Username,
		"mode":     mode,
	}).Info("Telegram bot created")
	return b, nil
}

// idlePoller keeps Bot.Start running in webhook mode. Updates arrive through
// WebhookHandler, so the poller only waits to be stopped.
type idlePoller struct{}

func (idlePoller) Poll(_ *telebot.Bot, _ chan telebot.Update, stop chan struct{}) {
	<-stop
}
