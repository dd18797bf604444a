package telegram

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"class_schedule_bot/internal/app"
)

// UseMiddleware installs the global middleware chain.
func UseMiddleware(ctx context.Context, b *telebot.Bot, chats *app.ChatService, baseLogger *logrus.Entry) {
	b.Use(
		middleware.Recover(func(err error) {
			baseLogger.WithError(err).Error("Recovered from handler panic")
		}),
		middleware.AutoRespond(),
		trackActivity(ctx, chats, baseLogger),
	)
}

// trackActivity logs every update and records the chat's last interaction.
func trackActivity(ctx context.Context, chats *app.ChatService, baseLogger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			started := time.Now()
			entry := baseLogger.WithFields(updateFields(c))

			if c.Chat() != nil {
				if err := chats.Touch(ctx, c.Chat().ID); err != nil {
					entry.WithError(err).Warn("Failed to record interaction")
				}
			}

			err := next(c)
			entry.WithField("duration", time.Since(started).String()).Debug("Update handled")
			return err
		}
	}
}

func updateFields(c telebot.Context) logrus.Fields {
	fields := logrus.Fields{"update_id": c.Update().ID}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	if c.Chat() != nil {
		fields["chat_id"] = c.Chat().ID
	}
	if cb := c.Callback(); cb != nil {
		fields["callback"] = cb.Unique
	}
	return fields
}

// adminOnly rejects updates from anyone but the configured admin.
func adminOnly(admin *app.AdminService, baseLogger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if err := authorize(c, admin); err != nil {
				baseLogger.WithFields(updateFields(c)).WithError(err).Warn("Unauthorized access attempt")
				return c.Send(textForbidden)
			}
			return next(c)
		}
	}
}

func authorize(c telebot.Context, admin *app.AdminService) error {
	sender := c.Sender()
	if sender == nil {
		return app.ErrAdminNotAuthorized
	}
	return admin.Authorize(sender.ID, sender.Username)
}
