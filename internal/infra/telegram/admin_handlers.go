package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/domain/pending"
	"class_schedule_bot/internal/domain/schedule"
	"class_schedule_bot/internal/infra/telegram/keyboards"
)

// RegisterAdminHandlers registers the admin panel callbacks and admin commands.
// Everything except /admin itself goes through the adminOnly middleware.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, svc Services, baseLogger *logrus.Entry) {
	b.Handle("/admin", func(c telebot.Context) error {
		if err := authorize(c, svc.Admin); err != nil {
			baseLogger.WithFields(updateFields(c)).WithError(err).Warn("Unauthorized access attempt")
			return c.Send(textNotAdmin)
		}
		return c.Send(textAdminPanel, keyboards.AdminMenu())
	})

	admin := b.Group()
	admin.Use(adminOnly(svc.Admin, baseLogger))

	admin.Handle(&keyboards.BtnAdminBack, func(c telebot.Context) error {
		return c.Send(textAdminPanel, keyboards.AdminMenu())
	})

	admin.Handle(&keyboards.BtnAdminDashboard, func(c telebot.Context) error {
		d, err := svc.Admin.Dashboard(ctx)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to build dashboard")
			return c.Send(textInternalError)
		}
		return c.Send(dashboardText(d), telebot.ModeMarkdown, keyboards.AdminMenu())
	})

	admin.Handle(&keyboards.BtnAdminStats, func(c telebot.Context) error {
		d, err := svc.Admin.Dashboard(ctx)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to build admin stats")
			return c.Send(textInternalError)
		}
		return c.Send(adminStatsText(d), telebot.ModeMarkdown, keyboards.AdminMenu())
	})

	admin.Handle(&keyboards.BtnAdminBroadcast, func(c telebot.Context) error {
		if err := svc.Chats.Prompt(ctx, c.Sender().ID, pending.ActionBroadcast, ""); err != nil {
			baseLogger.WithError(err).Error("Failed to store broadcast prompt")
			return c.Send(textInternalError)
		}
		return c.Send(textBroadcastPrompt)
	})

	listChats := func(c telebot.Context, page int) error {
		p, err := svc.Admin.ListChats(ctx, page)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to list chats")
			return c.Send(textInternalError)
		}
		if len(p.Items) == 0 {
			return c.Send(textNoChats)
		}
		ids := make([]int64, 0, len(p.Items))
		for _, item := range p.Items {
			ids = append(ids, item.ID)
		}
		return c.Send(chatListText(p), keyboards.ChatListMenu(ids, p.Page, p.Pages))
	}
	admin.Handle(&keyboards.BtnAdminList, func(c telebot.Context) error {
		return listChats(c, 0)
	})
	admin.Handle(&keyboards.BtnAdminPage, func(c telebot.Context) error {
		page, err := strconv.Atoi(c.Callback().Data)
		if err != nil {
			page = 0
		}
		return listChats(c, page)
	})

	admin.Handle(&keyboards.BtnAdminRemove, func(c telebot.Context) error {
		chatID, err := parseChatID(c.Callback().Data)
		if err != nil {
			return c.Send(textBadChatID)
		}
		if err := svc.Admin.RemoveChat(ctx, chatID); err != nil {
			baseLogger.WithError(err).WithField("target_chat_id", chatID).Error("Failed to remove chat")
			return c.Send(textInternalError)
		}
		baseLogger.WithField("target_chat_id", chatID).Info("Chat removed by admin")
		return c.Send(chatRemovedText(chatID))
	})

	admin.Handle(&keyboards.BtnAdminSetTime, func(c telebot.Context) error {
		if err := svc.Chats.Prompt(ctx, c.Sender().ID, pending.ActionSendTime, ""); err != nil {
			baseLogger.WithError(err).Error("Failed to store send time prompt")
			return c.Send(textInternalError)
		}
		return c.Send(textSetTimePrompt, keyboards.AdminTimeMenu())
	})

	admin.Handle(&keyboards.BtnAdminTime, func(c telebot.Context) error {
		choice := c.Callback().Data
		if choice == keyboards.TimeCustom {
			if err := svc.Chats.Prompt(ctx, c.Sender().ID, pending.ActionSendTime, ""); err != nil {
				baseLogger.WithError(err).Error("Failed to store send time prompt")
				return c.Send(textInternalError)
			}
			return c.Send(textCustomTime)
		}
		return applySendTime(ctx, c, svc, choice, baseLogger)
	})

	admin.Handle("/ban", func(c telebot.Context) error {
		args := c.Args()
		// Expected format: /ban <chat_id> [reason...]
		if len(args) < 1 {
			return c.Send(textBanUsage)
		}
		chatID, err := parseChatID(args[0])
		if err != nil {
			return c.Send(textBadChatID)
		}
		reason := strings.Join(args[1:], " ")

		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":        "/ban",
			"target_chat_id": chatID,
		})
		if err := svc.Admin.Ban(ctx, chatID, reason); err != nil {
			handlerLogger.WithError(err).Error("Failed to ban chat")
			return c.Send(textInternalError)
		}
		return c.Send(bannedText(chatID))
	})

	admin.Handle("/unban", func(c telebot.Context) error {
		args := c.Args()
		if len(args) != 1 {
			return c.Send(textUnbanUsage)
		}
		chatID, err := parseChatID(args[0])
		if err != nil {
			return c.Send(textBadChatID)
		}
		if err := svc.Admin.Unban(ctx, chatID); err != nil {
			baseLogger.WithError(err).WithField("target_chat_id", chatID).Error("Failed to unban chat")
			return c.Send(textInternalError)
		}
		return c.Send(unbannedText(chatID))
	})

	admin.Handle("/banned", func(c telebot.Context) error {
		bans, err := svc.Admin.ListBanned(ctx)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to list banned chats")
			return c.Send(textInternalError)
		}
		return c.Send(bannedListText(bans, svc.Location))
	})
}

// applySendTime handles both the preset buttons and a typed HH:MM answer.
func applySendTime(ctx context.Context, c telebot.Context, svc Services, text string, baseLogger *logrus.Entry) error {
	clock, err := svc.Admin.SetSendTimeFromText(ctx, text)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidClock) {
			return c.Send(textInvalidTime)
		}
		baseLogger.WithError(err).Error("Failed to update send time")
		return c.Send(textInternalError)
	}
	if err := svc.Chats.ClearPending(ctx, c.Sender().ID); err != nil {
		baseLogger.WithError(err).Warn("Failed to clear send time prompt")
	}
	return c.Send(sendTimeSetText(clock.String()))
}
