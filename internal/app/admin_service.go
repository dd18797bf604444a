package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/domain/chat"
	"class_schedule_bot/internal/domain/schedule"
	"class_schedule_bot/internal/domain/settings"
	"class_schedule_bot/internal/domain/stats"
	domainTelegram "class_schedule_bot/internal/domain/telegram"
)

// ChatPageSize is the number of chats shown per admin list page.
const ChatPageSize = 10

var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")
var ErrEmptyBroadcast = errors.New("broadcast text is empty")

// Rescheduler moves the daily schedule job to a new time.
type Rescheduler interface {
	Reschedule(clock schedule.Clock) error
}

// AdminIdentity is how the admin is recognized: by numeric id, by username, or both.
type AdminIdentity struct {
	TelegramID int64
	Username   string
}

// BroadcastOptions control retries of a single broadcast delivery.
type BroadcastOptions struct {
	Attempts int
	Backoff  time.Duration // multiplied by the attempt number
}

// Dashboard is the summary shown on the admin panel.
type Dashboard struct {
	Chats    int
	Stats    *stats.Summary
	SendTime schedule.Clock
}

// ChatPage is one page of the admin chat list. Page is zero-based.
type ChatPage struct {
	Items []*chat.Chat
	Total int
	Page  int
	Pages int
}

type BroadcastFailure struct {
	ChatID int64
	Reason string
}

type BroadcastReport struct {
	Sent     int
	Failures []BroadcastFailure
}

type AdminService struct {
	chatRepo       chat.Repository
	statsRepo      stats.Repository
	settingsRepo   settings.Repository
	telegramClient domainTelegram.Client
	rescheduler    Rescheduler
	admin          AdminIdentity
	broadcast      BroadcastOptions
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *logrus.Entry

	mu       sync.RWMutex
	sendTime schedule.Clock
}

func NewAdminService(
	cr chat.Repository,
	sr stats.Repository,
	setr settings.Repository,
	tc domainTelegram.Client,
	admin AdminIdentity,
	broadcast BroadcastOptions,
	logger *logrus.Entry,
) *AdminService {
	if broadcast.Attempts < 1 {
		broadcast.Attempts = 1
	}
	return &AdminService{
		chatRepo:       cr,
		statsRepo:      sr,
		settingsRepo:   setr,
		telegramClient: tc,
		admin:          admin,
		broadcast:      broadcast,
		now:            time.Now,
		sleep:          sleepContext,
		logger:         logger,
	}
}

// SetRescheduler connects the scheduler. The scheduler needs the send time at
// construction, so it is attached after LoadSendTime.
func (s *AdminService) SetRescheduler(r Rescheduler) {
	s.rescheduler = r
}

// IsAdmin reports whether the Telegram user is the configured admin.
func (s *AdminService) IsAdmin(userID int64, username string) bool {
	if s.admin.TelegramID != 0 && userID == s.admin.TelegramID {
		return true
	}
	return s.admin.Username != "" && strings.EqualFold(username, s.admin.Username)
}

// Authorize returns ErrAdminNotAuthorized unless the user is the admin.
func (s *AdminService) Authorize(userID int64, username string) error {
	if !s.IsAdmin(userID, username) {
		return fmt.Errorf("user %d: %w", userID, ErrAdminNotAuthorized)
	}
	return nil
}

// LoadSendTime restores the persisted send time, falling back to the configured one.
func (s *AdminService) LoadSendTime(ctx context.Context, fallback schedule.Clock) (schedule.Clock, error) {
	clock := fallback
	value, found, err := s.settingsRepo.Get(ctx, settings.KeySendTime)
	if err != nil {
		return fallback, fmt.Errorf("failed to load send time: %w", err)
	}
	if found {
		parsed, err := schedule.ParseClock(value)
		if err != nil {
			s.logger.WithField("value", value).Warn("Ignoring invalid persisted send time")
		} else {
			clock = parsed
		}
	}

	s.mu.Lock()
	s.sendTime = clock
	s.mu.Unlock()
	return clock, nil
}

func (s *AdminService) SendTime() schedule.Clock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendTime
}

// SetSendTime persists the new daily send time and reschedules the daily job.
func (s *AdminService) SetSendTime(ctx context.Context, clock schedule.Clock) error {
	if err := s.settingsRepo.Set(ctx, settings.KeySendTime, clock.String()); err != nil {
		return fmt.Errorf("failed to save send time: %w", err)
	}
	if s.rescheduler != nil {
		if err := s.rescheduler.Reschedule(clock); err != nil {
			return fmt.Errorf("failed to reschedule daily job: %w", err)
		}
	}

	s.mu.Lock()
	s.sendTime = clock
	s.mu.Unlock()

	s.logger.WithField("send_time", clock.String()).Info("Send time updated")
	return nil
}

// SetSendTimeFromText parses HH:MM typed by the admin and applies it.
func (s *AdminService) SetSendTimeFromText(ctx context.Context, text string) (schedule.Clock, error) {
	clock, err := schedule.ParseClock(text)
	if err != nil {
		return schedule.Clock{}, err
	}
	return clock, s.SetSendTime(ctx, clock)
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	count, err := s.chatRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.statsRepo.Summary(ctx, s.now().Add(-24*time.Hour).Unix())
	if err != nil {
		return nil, err
	}
	return &Dashboard{Chats: count, Stats: summary, SendTime: s.SendTime()}, nil
}

// ListChats returns one page of chats, most recently active first.
// Out of range pages are clamped.
func (s *AdminService) ListChats(ctx context.Context, page int) (*ChatPage, error) {
	chats, err := s.chatRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	pages := (len(chats) + ChatPageSize - 1) / ChatPageSize
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}

	start := page * ChatPageSize
	end := start + ChatPageSize
	if end > len(chats) {
		end = len(chats)
	}
	return &ChatPage{
		Items: chats[start:end],
		Total: len(chats),
		Page:  page,
		Pages: pages,
	}, nil
}

func (s *AdminService) RemoveChat(ctx context.Context, chatID int64) error {
	return s.chatRepo.Remove(ctx, chatID)
}

// Ban blocks the chat from all deliveries and unsubscribes it.
func (s *AdminService) Ban(ctx context.Context, chatID int64, reason string) error {
	if err := s.chatRepo.Ban(ctx, chatID, strings.TrimSpace(reason), s.now().Unix()); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"chat_id": chatID, "reason": reason}).Info("Chat banned")
	return nil
}

func (s *AdminService) Unban(ctx context.Context, chatID int64) error {
	return s.chatRepo.Unban(ctx, chatID)
}

func (s *AdminService) ListBanned(ctx context.Context) ([]*chat.Ban, error) {
	return s.chatRepo.ListBanned(ctx)
}

// Broadcast sends an admin announcement to every subscribed group.
// Groups the bot has left are unsubscribed on the way.
func (s *AdminService) Broadcast(ctx context.Context, text string) (*BroadcastReport, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyBroadcast
	}

	chats, err := s.chatRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for broadcast: %w", err)
	}

	report := &BroadcastReport{}
	message := "📣 Admin xabari\n\n" + text
	for _, c := range chats {
		if !c.IsGroup() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		reason, ok := s.deliverBroadcast(ctx, c.ID, message)
		if ok {
			report.Sent++
			continue
		}
		report.Failures = append(report.Failures, BroadcastFailure{ChatID: c.ID, Reason: reason})
	}

	s.logger.WithFields(logrus.Fields{
		"sent":   report.Sent,
		"failed": len(report.Failures),
	}).Info("Broadcast finished")
	return report, nil
}

func (s *AdminService) deliverBroadcast(ctx context.Context, chatID int64, message string) (string, bool) {
	log := s.logger.WithField("chat_id", chatID)

	banned, err := s.chatRepo.IsBanned(ctx, chatID)
	if err != nil {
		log.WithError(err).Warn("Ban check failed, attempting send")
	} else if banned {
		log.Info("Skipping banned chat")
		return "banned", false
	}

	status, err := s.telegramClient.BotMemberStatus(chatID)
	if err != nil {
		log.WithError(err).Debug("Membership check failed, attempting send")
	} else if status == telebot.Left || status == telebot.Kicked {
		log.WithField("status", status).Info("Bot is no longer a member, removing chat")
		if err := s.chatRepo.Remove(ctx, chatID); err != nil {
			log.WithError(err).Warn("Failed to remove chat")
		}
		return fmt.Sprintf("not_member (%s)", status), false
	}

	var lastErr error
	for attempt := 1; attempt <= s.broadcast.Attempts; attempt++ {
		_, lastErr = s.telegramClient.SendMessage(chatID, message, &telebot.SendOptions{})
		if lastErr == nil {
			return "", true
		}
		log.WithError(lastErr).WithField("attempt", attempt).Warn("Broadcast attempt failed")
		if errors.Is(lastErr, domainTelegram.ErrPermanent) || attempt == s.broadcast.Attempts {
			break
		}
		if err := s.sleep(ctx, s.broadcast.Backoff*time.Duration(attempt)); err != nil {
			return err.Error(), false
		}
	}
	return lastErr.Error(), false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
