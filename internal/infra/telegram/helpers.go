package telegram

import (
	"strconv"

	"gopkg.in/telebot.v3"
)

func senderFirstName(c telebot.Context) string {
	if c.Sender() == nil {
		return ""
	}
	return c.Sender().FirstName
}

// chatIdentity names the chat: the user in private chats, the title otherwise.
func chatIdentity(c telebot.Context) (name, username string) {
	ch := c.Chat()
	if ch.Type == telebot.ChatPrivate {
		if s := c.Sender(); s != nil {
			return s.FirstName, s.Username
		}
		return ch.FirstName, ch.Username
	}
	if ch.Title != "" {
		return ch.Title, ch.Username
	}
	return ch.FirstName, ch.Username
}

func botUsername(c telebot.Context) string {
	if me := c.Bot().Me; me != nil {
		return me.Username
	}
	return ""
}

func formatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseChatID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
