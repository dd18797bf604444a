package telegram

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/domain/pending"
	"class_schedule_bot/internal/domain/schedule"
	idb "class_schedule_bot/internal/infra/database"
	"class_schedule_bot/internal/infra/telegram/keyboards"
)

// RegisterMessageHandlers registers /cancel, free-text prompt answers and membership tracking.
func RegisterMessageHandlers(ctx context.Context, b *telebot.Bot, svc Services, baseLogger *logrus.Entry) {
	b.Handle("/cancel", func(c telebot.Context) error {
		if c.Sender() != nil {
			if err := svc.Chats.ClearPending(ctx, c.Sender().ID); err != nil {
				baseLogger.WithError(err).Warn("Failed to clear prompt")
			}
		}
		return c.Send(textCancelled)
	})

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		if c.Chat().Type != telebot.ChatPrivate {
			registerChat(ctx, c, svc.Chats, baseLogger)
		}
		if c.Sender() == nil {
			return nil
		}

		in, err := svc.Chats.Pending(ctx, c.Sender().ID)
		if err != nil {
			baseLogger.WithError(err).WithField("sender_id", c.Sender().ID).Error("Failed to load prompt")
			return nil
		}
		if in == nil {
			return nil
		}
		return answerPrompt(ctx, c, svc, in, baseLogger)
	})

	b.Handle(telebot.OnMyChatMember, func(c telebot.Context) error {
		upd := c.ChatMember()
		if upd == nil || upd.Chat == nil || upd.NewChatMember == nil {
			return nil
		}
		name := upd.Chat.Title
		if name == "" {
			name = upd.Chat.FirstName
		}
		status := upd.NewChatMember.Role

		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler": "my_chat_member",
			"chat_id": upd.Chat.ID,
			"status":  status,
		})
		changed, err := svc.Chats.Membership(ctx, upd.Chat.ID, name, upd.Chat.Username, status)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to apply membership change")
			return nil
		}
		if changed {
			handlerLogger.Info("Bot membership changed")
		}
		return nil
	})
}

func answerPrompt(ctx context.Context, c telebot.Context, svc Services, in *pending.Input, baseLogger *logrus.Entry) error {
	sender := c.Sender()
	handlerLogger := baseLogger.WithFields(logrus.Fields{
		"handler":   "prompt",
		"action":    in.Action,
		"sender_id": sender.ID,
	})

	switch in.Action {
	case pending.ActionReminderTime:
		chatID := c.Chat().ID
		if id, err := parseChatID(in.Payload); err == nil {
			chatID = id
		}
		clock, err := svc.Chats.SetReminderTime(ctx, chatID, sender.ID, c.Text())
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidClock) {
				return c.Send(textInvalidTime)
			}
			if errors.Is(err, idb.ErrChatNotFound) {
				return c.Send(textStartFirst)
			}
			handlerLogger.WithError(err).Error("Failed to set reminder time")
			return c.Send(textInternalError)
		}
		return c.Send(reminderSetText(clock.String()), keyboards.SettingsMenu())

	case pending.ActionSendTime, pending.ActionBroadcast:
		if err := svc.Admin.Authorize(sender.ID, sender.Username); err != nil {
			handlerLogger.WithError(err).Warn("Dropping admin prompt")
			return svc.Chats.ClearPending(ctx, sender.ID)
		}
		if in.Action == pending.ActionSendTime {
			return applySendTime(ctx, c, svc, c.Text(), baseLogger)
		}

		if err := svc.Chats.ClearPending(ctx, sender.ID); err != nil {
			handlerLogger.WithError(err).Warn("Failed to clear broadcast prompt")
		}
		report, err := svc.Admin.Broadcast(ctx, c.Text())
		if err != nil {
			handlerLogger.WithError(err).Error("Broadcast failed")
			return c.Send(textInternalError)
		}
		return c.Send(broadcastReportText(report))

	default:
		handlerLogger.Warn("Unknown prompt action")
		return svc.Chats.ClearPending(ctx, sender.ID)
	}
}
