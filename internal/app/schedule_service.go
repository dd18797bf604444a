package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/domain/chat"
	"class_schedule_bot/internal/domain/schedule"
	"class_schedule_bot/internal/domain/stats"
	domainTelegram "class_schedule_bot/internal/domain/telegram"
	idb "class_schedule_bot/internal/infra/database"
)

// ScheduleService delivers timetable messages to chats.
type ScheduleService struct {
	chatRepo       chat.Repository
	statsRepo      stats.Repository
	telegramClient domainTelegram.Client
	timetable      schedule.Timetable
	location       *time.Location
	menu           func() *telebot.ReplyMarkup
	now            func() time.Time
	logger         *logrus.Entry
}

func NewScheduleService(
	cr chat.Repository,
	sr stats.Repository,
	tc domainTelegram.Client,
	timetable schedule.Timetable,
	location *time.Location,
	logger *logrus.Entry,
) *ScheduleService {
	return &ScheduleService{
		chatRepo:       cr,
		statsRepo:      sr,
		telegramClient: tc,
		timetable:      timetable,
		location:       location,
		now:            time.Now,
		logger:         logger,
	}
}

// WithMenu sets the keyboard attached to every schedule message. The builder
// runs per send because telebot rewrites button data in place.
func (s *ScheduleService) WithMenu(menu func() *telebot.ReplyMarkup) *ScheduleService {
	s.menu = menu
	return s
}

// WithClock replaces the time source.
func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

func (s *ScheduleService) sendOptions() *telebot.SendOptions {
	opts := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}
	if s.menu != nil {
		opts.ReplyMarkup = s.menu()
	}
	return opts
}

// Now returns the current time in the configured zone.
func (s *ScheduleService) Now() time.Time {
	return s.now().In(s.location)
}

func (s *ScheduleService) Today() time.Weekday     { return schedule.Today(s.Now()) }
func (s *ScheduleService) Tomorrow() time.Weekday  { return schedule.Tomorrow(s.Now()) }
func (s *ScheduleService) Yesterday() time.Weekday { return schedule.Yesterday(s.Now()) }

// SendDay sends the lessons of day to the chat, replacing the previous schedule message.
// It reports false without error when the day has no lessons or the chat is banned.
func (s *ScheduleService) SendDay(ctx context.Context, chatID int64, day time.Weekday) (bool, error) {
	subjects, ok := s.timetable.Subjects(day)
	if !ok {
		return false, nil
	}

	banned, err := s.chatRepo.IsBanned(ctx, chatID)
	if err != nil {
		return false, err
	}
	if banned {
		s.logger.WithField("chat_id", chatID).Debug("Skipping schedule for banned chat")
		return false, nil
	}

	s.deletePrevious(ctx, chatID)

	msgID, err := s.telegramClient.SendMessage(chatID, schedule.FormatDay(day, subjects), s.sendOptions())
	if err != nil {
		return false, fmt.Errorf("failed to send schedule to chat %d: %w", chatID, err)
	}

	if err := s.chatRepo.SetLastMessage(ctx, chatID, msgID); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to remember last schedule message")
	}
	s.logStat(ctx, chatID, "view_schedule")
	return true, nil
}

func (s *ScheduleService) deletePrevious(ctx context.Context, chatID int64) {
	c, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, idb.ErrChatNotFound) {
			s.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to load chat before sending schedule")
		}
		return
	}
	if !c.LastMessageID.Valid {
		return
	}
	if err := s.telegramClient.DeleteMessage(chatID, int(c.LastMessageID.Int64)); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Debug("Previous schedule message not deleted")
	}
}

// SendFull sends the whole week to the chat.
func (s *ScheduleService) SendFull(ctx context.Context, chatID int64) (bool, error) {
	banned, err := s.chatRepo.IsBanned(ctx, chatID)
	if err != nil {
		return false, err
	}
	if banned {
		return false, nil
	}

	_, err = s.telegramClient.SendMessage(chatID, s.timetable.FormatFull(), s.sendOptions())
	if err != nil {
		return false, fmt.Errorf("failed to send full timetable to chat %d: %w", chatID, err)
	}
	s.logStat(ctx, chatID, "view_full_timetable")
	return true, nil
}

// SendTomorrowToAll pushes tomorrow's lessons to every chat that follows the global send time.
func (s *ScheduleService) SendTomorrowToAll(ctx context.Context) (int, error) {
	chats, err := s.chatRepo.ListDailyRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list daily recipients: %w", err)
	}
	return s.sendTomorrowTo(ctx, chats), nil
}

// SendPersonalReminders pushes tomorrow's lessons to chats whose own reminder time is now.
func (s *ScheduleService) SendPersonalReminders(ctx context.Context) (int, error) {
	now := s.Now()
	hhmm := schedule.Clock{Hour: now.Hour(), Minute: now.Minute()}.String()
	chats, err := s.chatRepo.ListByReminderTime(ctx, hhmm)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminders for %s: %w", hhmm, err)
	}
	return s.sendTomorrowTo(ctx, chats), nil
}

func (s *ScheduleService) sendTomorrowTo(ctx context.Context, chats []*chat.Chat) int {
	day := s.Tomorrow()
	sent := 0
	for _, c := range chats {
		ok, err := s.SendDay(ctx, c.ID, day)
		if err != nil {
			s.logger.WithError(err).WithField("chat_id", c.ID).Warn("Failed to deliver schedule")
			continue
		}
		if ok {
			sent++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"day":        schedule.DayName(day),
		"recipients": len(chats),
		"sent":       sent,
	}).Info("Schedule delivery finished")
	return sent
}

func (s *ScheduleService) logStat(ctx context.Context, chatID int64, data string) {
	if err := s.statsRepo.Log(ctx, stats.EventInteraction, chatID, data, s.now().Unix()); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to log interaction")
	}
}
