package telegram

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const maxUpdateSize = 1 << 20

// UpdateProcessor runs the registered handlers for one update. *telebot.Bot implements it.
type UpdateProcessor interface {
	ProcessUpdate(u telebot.Update)
}

// WebhookHandler decodes updates posted by Telegram and hands them to the bot
// directly. It does not depend on the poller, so requests never wait for
// Bot.Start to have run.
func WebhookHandler(bot UpdateProcessor, logger *logrus.Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update telebot.Update
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&update); err != nil {
			logger.WithError(err).Warn("Rejected malformed webhook update")
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		bot.ProcessUpdate(update)
		w.WriteHeader(http.StatusOK)
	})
}
