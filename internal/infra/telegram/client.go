package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/telebot.v3"

	domainTelegram "class_schedule_bot/internal/domain/telegram"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) (int, error) {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	msg, err := tba.bot.Send(telebot.ChatID(chatID), text, options)
	if err != nil {
		return 0, classifyError(err)
	}
	return msg.ID, nil
}

func (tba *TelebotAdapter) DeleteMessage(chatID int64, messageID int) error {
	err := tba.bot.Delete(&telebot.StoredMessage{ChatID: chatID, MessageID: strconv.Itoa(messageID)})
	return classifyError(err)
}

func (tba *TelebotAdapter) BotMemberStatus(chatID int64) (telebot.MemberStatus, error) {
	if tba.bot.Me == nil {
		return "", fmt.Errorf("bot identity unknown")
	}
	member, err := tba.bot.ChatMemberOf(&telebot.Chat{ID: chatID}, tba.bot.Me)
	if err != nil {
		return "", classifyError(err)
	}
	return member.Role, nil
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanentError(err) {
		return fmt.Errorf("%w: %v", domainTelegram.ErrPermanent, err)
	}
	return err
}

var permanentMarkers = []string{
	"not member",
	"bot was kicked",
	"chat not found",
	"forbidden",
	"bad request",
	"(400)",
	"(403)",
}

// IsPermanentError reports whether a Bot API error means retrying the same request is pointless.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *telebot.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 400 || apiErr.Code == 403) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
