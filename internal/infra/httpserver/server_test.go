package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_schedule_bot/internal/infra/logger"
)

type stubSender struct {
	sent  int
	err   error
	calls int
}

func (s *stubSender) SendTomorrowToAll(ctx context.Context) (int, error) {
	s.calls++
	return s.sent, s.err
}

func quietLogger() *logrus.Entry {
	return logger.Discard("test")
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	router := NewRouter(RouterOptions{Secret: "s3cret", Sender: &stubSender{}}, quietLogger())
	rec := do(t, router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK ✅ Bot is alive", rec.Body.String())
}

func TestSendTomorrow(t *testing.T) {
	sender := &stubSender{sent: 4}
	router := NewRouter(RouterOptions{Secret: "s3cret", Sender: sender}, quietLogger())

	rec := do(t, router, http.MethodGet, "/sendTomorrow?key=wrong")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/sendTomorrow")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, sender.calls)

	rec = do(t, router, http.MethodGet, "/sendTomorrow?key=s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sent to 4 chats", rec.Body.String())
	assert.Equal(t, 1, sender.calls)
}

func TestSendTomorrowFailure(t *testing.T) {
	router := NewRouter(RouterOptions{Secret: "k", Sender: &stubSender{err: errors.New("db down")}}, quietLogger())
	rec := do(t, router, http.MethodGet, "/sendTomorrow?key=k")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error", rec.Body.String())
}

func TestWebhookRoute(t *testing.T) {
	var hits int
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	router := NewRouter(RouterOptions{
		Secret:      "k",
		Sender:      &stubSender{},
		WebhookPath: "/telegraf/k",
		Webhook:     webhook,
	}, quietLogger())

	rec := do(t, router, http.MethodPost, "/telegraf/k")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)

	rec = do(t, router, http.MethodGet, "/telegraf/k")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	polling := NewRouter(RouterOptions{Secret: "k", Sender: &stubSender{}}, quietLogger())
	rec = do(t, polling, http.MethodPost, "/telegraf/k")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
