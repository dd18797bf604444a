package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// TomorrowSender pushes tomorrow's schedule to the daily recipients.
type TomorrowSender interface {
	SendTomorrowToAll(ctx context.Context) (int, error)
}

// RouterOptions configure the HTTP routes. Webhook is mounted only when set.
type RouterOptions struct {
	Secret      string
	Sender      TomorrowSender
	WebhookPath string
	Webhook     http.Handler
}

// NewRouter builds the health, manual trigger and webhook routes.
func NewRouter(opts RouterOptions, logger *logrus.Entry) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "OK ✅ Bot is alive")
	}).Methods(http.MethodGet)

	router.HandleFunc("/sendTomorrow", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(opts.Secret)) != 1 {
			logger.WithField("remote_addr", r.RemoteAddr).Warn("Rejected manual trigger with wrong key")
			writeText(w, http.StatusForbidden, "Forbidden")
			return
		}
		sent, err := opts.Sender.SendTomorrowToAll(r.Context())
		if err != nil {
			logger.WithError(err).Error("Manual schedule delivery failed")
			writeText(w, http.StatusInternalServerError, "Error")
			return
		}
		logger.WithField("sent", sent).Info("Manual schedule delivery done")
		writeText(w, http.StatusOK, fmt.Sprintf("Sent to %d chats", sent))
	}).Methods(http.MethodGet)

	if opts.Webhook != nil && opts.WebhookPath != "" {
		router.Handle(opts.WebhookPath, opts.Webhook).Methods(http.MethodPost)
	}
	return router
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Server wraps http.Server with logging and graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *logrus.Entry
}

func NewServer(addr string, handler http.Handler, logger *logrus.Entry) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background. Listener failures are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.srv.Addr).Info("HTTP server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.srv.Shutdown(ctx)
}
