package telegram

import (
	"errors"

	"gopkg.in/telebot.v3"
)

// ErrPermanent marks send failures that will not succeed on retry
// (chat not found, bot kicked or blocked, malformed request).
var ErrPermanent = errors.New("permanent telegram error")

// Client defines an interface for talking to chats via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	// SendMessage returns the id of the sent message.
	SendMessage(chatID int64, text string, options *telebot.SendOptions) (int, error)
	DeleteMessage(chatID int64, messageID int) error
	// BotMemberStatus returns the bot's own membership status in the chat.
	BotMemberStatus(chatID int64) (telebot.MemberStatus, error)
}
