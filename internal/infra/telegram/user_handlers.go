package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/chat"
	"class_schedule_bot/internal/domain/pending"
	idb "class_schedule_bot/internal/infra/database"
	"class_schedule_bot/internal/infra/telegram/keyboards"
)

// Services groups the application services used by the handlers.
type Services struct {
	Schedule *app.ScheduleService
	Chats    *app.ChatService
	Admin    *app.AdminService
	Location *time.Location
}

// RegisterUserHandlers registers /start, the schedule commands and the user menu callbacks.
func RegisterUserHandlers(ctx context.Context, b *telebot.Bot, svc Services, baseLogger *logrus.Entry) {
	b.Handle("/start", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler": "/start",
			"chat_id": c.Chat().ID,
		})

		req := app.StartRequest{
			ChatID:  c.Chat().ID,
			Private: c.Chat().Type == telebot.ChatPrivate,
		}
		var firstName string
		if sender := c.Sender(); sender != nil {
			firstName = sender.FirstName
			req.ByAdmin = svc.Admin.IsAdmin(sender.ID, sender.Username)
			req.Name, req.Username = sender.FirstName, sender.Username
		}
		if !req.Private {
			req.Name, req.Username = c.Chat().Title, c.Chat().Username
		}

		outcome, err := svc.Chats.Start(ctx, req)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to start subscription")
			return c.Send(textInternalError)
		}

		switch outcome {
		case app.StartThrottled:
			return c.Send(textThrottled)
		case app.StartPrivateOnly:
			return c.Send(textPrivateOnly, keyboards.PrivateChatLink(botUsername(c)))
		case app.StartBanned:
			handlerLogger.Info("Refused /start from banned chat")
			return c.Send(textChatBanned)
		default:
			handlerLogger.Info("Chat subscribed")
			return c.Send(welcomeText(firstName), keyboards.StartMenu())
		}
	})

	today := func(c telebot.Context) error {
		return sendDay(ctx, c, svc, svc.Schedule.Today(), greetToday, baseLogger)
	}
	tomorrow := func(c telebot.Context) error {
		return sendDay(ctx, c, svc, svc.Schedule.Tomorrow(), greetTomorrow, baseLogger)
	}
	b.Handle("/today", today)
	b.Handle(&keyboards.BtnToday, today)
	b.Handle("/tomorrow", tomorrow)
	b.Handle(&keyboards.BtnTomorrow, tomorrow)
	b.Handle(&keyboards.BtnYesterday, func(c telebot.Context) error {
		return sendDay(ctx, c, svc, svc.Schedule.Yesterday(), greetYesterday, baseLogger)
	})

	b.Handle(&keyboards.BtnFull, func(c telebot.Context) error {
		registerChat(ctx, c, svc.Chats, baseLogger)
		if err := c.Send(greetingText(greetFull, senderFirstName(c))); err != nil {
			return err
		}
		if _, err := svc.Schedule.SendFull(ctx, c.Chat().ID); err != nil {
			baseLogger.WithError(err).WithField("chat_id", c.Chat().ID).Error("Failed to send full timetable")
			return c.Send(textInternalError)
		}
		return nil
	})

	help := func(c telebot.Context) error {
		return c.Send(textHelp, telebot.ModeMarkdown, keyboards.MainMenu())
	}
	b.Handle("/help", help)
	b.Handle(&keyboards.BtnHelp, help)

	b.Handle(&keyboards.BtnBack, func(c telebot.Context) error {
		return c.Send(textMainMenu, keyboards.MainMenu())
	})

	// Inert fallback button; AutoRespond answers the callback.
	b.Handle(&keyboards.BtnNoop, func(c telebot.Context) error { return nil })

	b.Handle(&keyboards.BtnStats, func(c telebot.Context) error {
		summary, err := svc.Chats.Stats(ctx)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to compute stats")
			return c.Send(textInternalError)
		}
		return c.Send(statsText(summary), telebot.ModeMarkdown, keyboards.MainMenu())
	})

	b.Handle(&keyboards.BtnStop, func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler": "cmd_stop",
			"chat_id": c.Chat().ID,
		})
		if err := svc.Chats.Stop(ctx, c.Chat().ID); err != nil {
			handlerLogger.WithError(err).Error("Failed to unsubscribe chat")
			return c.Send(textInternalError)
		}
		handlerLogger.Info("Chat unsubscribed")
		return c.Send(textStopped)
	})

	registerSettingsHandlers(ctx, b, svc, baseLogger)
}

func registerSettingsHandlers(ctx context.Context, b *telebot.Bot, svc Services, baseLogger *logrus.Entry) {
	b.Handle(&keyboards.BtnSettings, func(c telebot.Context) error {
		return c.Send(textSettings, keyboards.SettingsMenu())
	})

	b.Handle(&keyboards.BtnToggleReminder, func(c telebot.Context) error {
		enabled, err := svc.Chats.ToggleReminder(ctx, c.Chat().ID)
		if err != nil {
			if errors.Is(err, idb.ErrChatNotFound) {
				return c.Send(textStartFirst)
			}
			baseLogger.WithError(err).WithField("chat_id", c.Chat().ID).Error("Failed to toggle reminder")
			return c.Send(textInternalError)
		}
		return c.Send(reminderStatusText(enabled), keyboards.SettingsMenu())
	})

	b.Handle(&keyboards.BtnLanguageUz, func(c telebot.Context) error {
		if err := svc.Chats.SetLanguage(ctx, c.Chat().ID, chat.DefaultLanguage); err != nil {
			baseLogger.WithError(err).WithField("chat_id", c.Chat().ID).Error("Failed to set language")
			return c.Send(textInternalError)
		}
		return c.Send(textLanguageUz, keyboards.SettingsMenu())
	})

	b.Handle(&keyboards.BtnReminderTime, func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		err := svc.Chats.Prompt(ctx, c.Sender().ID, pending.ActionReminderTime, formatChatID(c.Chat().ID))
		if err != nil {
			baseLogger.WithError(err).WithField("sender_id", c.Sender().ID).Error("Failed to store prompt")
			return c.Send(textInternalError)
		}
		return c.Send(textReminderPrompt)
	})
}

func sendDay(ctx context.Context, c telebot.Context, svc Services, day time.Weekday, g greeting, baseLogger *logrus.Entry) error {
	registerChat(ctx, c, svc.Chats, baseLogger)
	if day == time.Sunday {
		return c.Send(textSunday, keyboards.MainMenu())
	}
	if err := c.Send(greetingText(g, senderFirstName(c))); err != nil {
		return err
	}
	if _, err := svc.Schedule.SendDay(ctx, c.Chat().ID, day); err != nil {
		baseLogger.WithError(err).WithField("chat_id", c.Chat().ID).Error("Failed to send schedule")
		return c.Send(textInternalError)
	}
	return nil
}

// registerChat makes sure a chat asking for the schedule is known.
func registerChat(ctx context.Context, c telebot.Context, chats *app.ChatService, baseLogger *logrus.Entry) {
	name, username := chatIdentity(c)
	if err := chats.Register(ctx, c.Chat().ID, name, username); err != nil {
		baseLogger.WithError(err).WithField("chat_id", c.Chat().ID).Warn("Failed to register chat")
	}
}
