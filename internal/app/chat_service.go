package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/domain/chat"
	"class_schedule_bot/internal/domain/pending"
	"class_schedule_bot/internal/domain/schedule"
	"class_schedule_bot/internal/domain/stats"
	idb "class_schedule_bot/internal/infra/database"
)

// StartOutcome tells the /start handler which reply to give.
type StartOutcome int

const (
	StartWelcomed StartOutcome = iota
	StartThrottled
	StartPrivateOnly
	StartBanned
)

// StartRequest describes a /start invocation.
type StartRequest struct {
	ChatID   int64
	Private  bool
	ByAdmin  bool
	Name     string // sender first name in private chats, title in groups
	Username string
}

// ChatService manages subscriptions, per-chat settings and pending prompts.
type ChatService struct {
	chatRepo    chat.Repository
	statsRepo   stats.Repository
	pendingRepo pending.Repository
	cooldown    time.Duration
	pendingTTL  time.Duration
	now         func() time.Time
	logger      *logrus.Entry
}

func NewChatService(
	cr chat.Repository,
	sr stats.Repository,
	pr pending.Repository,
	startCooldown time.Duration,
	pendingTTL time.Duration,
	logger *logrus.Entry,
) *ChatService {
	return &ChatService{
		chatRepo:    cr,
		statsRepo:   sr,
		pendingRepo: pr,
		cooldown:    startCooldown,
		pendingTTL:  pendingTTL,
		now:         time.Now,
		logger:      logger,
	}
}

// Start subscribes the chat. Repeated /start within the cooldown is throttled,
// groups only accept /start from the admin and banned chats are refused.
func (s *ChatService) Start(ctx context.Context, req StartRequest) (StartOutcome, error) {
	now := s.now()

	banned, err := s.chatRepo.IsBanned(ctx, req.ChatID)
	if err != nil {
		return 0, fmt.Errorf("failed to check ban: %w", err)
	}
	if banned {
		return StartBanned, nil
	}

	existing, err := s.chatRepo.Get(ctx, req.ChatID)
	if err != nil && !errors.Is(err, idb.ErrChatNotFound) {
		return 0, fmt.Errorf("failed to load chat: %w", err)
	}
	if existing != nil && now.Sub(time.Unix(existing.LastStartAt, 0)) < s.cooldown {
		return StartThrottled, nil
	}

	if !req.Private && !req.ByAdmin {
		return StartPrivateOnly, nil
	}

	if err := s.Register(ctx, req.ChatID, req.Name, req.Username); err != nil {
		return 0, err
	}
	if err := s.chatRepo.SetLastStart(ctx, req.ChatID, now.Unix()); err != nil {
		return 0, err
	}
	if err := s.chatRepo.Touch(ctx, req.ChatID, now.Unix()); err != nil {
		return 0, err
	}
	s.logEvent(ctx, stats.EventStart, req.ChatID)
	return StartWelcomed, nil
}

// Stop unsubscribes the chat.
func (s *ChatService) Stop(ctx context.Context, chatID int64) error {
	if err := s.chatRepo.Remove(ctx, chatID); err != nil {
		return err
	}
	s.logEvent(ctx, stats.EventStop, chatID)
	return nil
}

// Register stores or refreshes a chat. Used on any activity so lists stay accurate.
// Banned chats are not registered again.
func (s *ChatService) Register(ctx context.Context, chatID int64, name, username string) error {
	banned, err := s.chatRepo.IsBanned(ctx, chatID)
	if err != nil {
		return err
	}
	if banned {
		return nil
	}
	return s.chatRepo.Upsert(ctx, chatID, name, username)
}

// Membership reacts to the bot being added to or removed from a chat.
// It reports whether the subscription list changed.
func (s *ChatService) Membership(ctx context.Context, chatID int64, name, username string, status telebot.MemberStatus) (bool, error) {
	switch status {
	case telebot.Member, telebot.Administrator:
		return true, s.Register(ctx, chatID, name, username)
	case telebot.Left, telebot.Kicked:
		return true, s.chatRepo.Remove(ctx, chatID)
	default:
		return false, nil
	}
}

// Touch records activity in the chat.
func (s *ChatService) Touch(ctx context.Context, chatID int64) error {
	return s.chatRepo.Touch(ctx, chatID, s.now().Unix())
}

// ToggleReminder flips the daily reminder flag and returns the new state.
func (s *ChatService) ToggleReminder(ctx context.Context, chatID int64) (bool, error) {
	c, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		return false, err
	}
	enabled := !c.ReminderEnabled
	if err := s.chatRepo.SetReminderEnabled(ctx, chatID, enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (s *ChatService) SetLanguage(ctx context.Context, chatID int64, lang string) error {
	return s.chatRepo.SetLanguage(ctx, chatID, lang)
}

// Prompt remembers that the next text from ownerID answers action.
// payload carries whatever the answer handler needs, such as the target chat.
func (s *ChatService) Prompt(ctx context.Context, ownerID int64, action pending.Action, payload string) error {
	return s.pendingRepo.Set(ctx, &pending.Input{
		OwnerID:   ownerID,
		Action:    action,
		Payload:   payload,
		CreatedAt: s.now().Unix(),
	})
}

// Pending returns the owner's outstanding prompt, or nil if there is none or it expired.
func (s *ChatService) Pending(ctx context.Context, ownerID int64) (*pending.Input, error) {
	in, err := s.pendingRepo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, idb.ErrPendingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if in.Expired(s.now(), s.pendingTTL) {
		if err := s.pendingRepo.Clear(ctx, ownerID); err != nil {
			s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to clear expired prompt")
		}
		return nil, nil
	}
	return in, nil
}

func (s *ChatService) ClearPending(ctx context.Context, ownerID int64) error {
	return s.pendingRepo.Clear(ctx, ownerID)
}

// SetReminderTime stores a personal reminder time typed by ownerID for chatID and closes the prompt.
// An unsubscribed chat yields idb.ErrChatNotFound and the prompt is closed as well.
func (s *ChatService) SetReminderTime(ctx context.Context, chatID, ownerID int64, text string) (schedule.Clock, error) {
	clock, err := schedule.ParseClock(text)
	if err != nil {
		return schedule.Clock{}, err
	}
	if _, err := s.chatRepo.Get(ctx, chatID); err != nil {
		if errors.Is(err, idb.ErrChatNotFound) {
			if clearErr := s.pendingRepo.Clear(ctx, ownerID); clearErr != nil {
				s.logger.WithError(clearErr).WithField("owner_id", ownerID).Warn("Failed to clear pending prompt")
			}
		}
		return schedule.Clock{}, err
	}
	if err := s.chatRepo.SetReminderTime(ctx, chatID, clock.String()); err != nil {
		return schedule.Clock{}, err
	}
	if err := s.pendingRepo.Clear(ctx, ownerID); err != nil {
		return schedule.Clock{}, err
	}
	return clock, nil
}

// Stats summarizes usage, counting chats active in the last 24 hours.
func (s *ChatService) Stats(ctx context.Context) (*stats.Summary, error) {
	return s.statsRepo.Summary(ctx, s.now().Add(-24*time.Hour).Unix())
}

func (s *ChatService) logEvent(ctx context.Context, event stats.EventType, chatID int64) {
	if err := s.statsRepo.Log(ctx, event, chatID, "", s.now().Unix()); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to log event")
	}
}
