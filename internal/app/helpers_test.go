package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	idb "class_schedule_bot/internal/infra/database"
	"class_schedule_bot/internal/infra/logger"
)

type sentMessage struct {
	ChatID  int64
	Text    string
	Options *telebot.SendOptions
}

// fakeClient records outgoing calls. sendErrs are consumed per chat, one per call.
type fakeClient struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	deleted  map[int64][]int
	sendErrs map[int64][]error
	statuses map[int64]telebot.MemberStatus
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		nextID:   100,
		deleted:  map[int64][]int{},
		sendErrs: map[int64][]error{},
		statuses: map[int64]telebot.MemberStatus{},
	}
}

func (f *fakeClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if errs := f.sendErrs[chatID]; len(errs) > 0 {
		f.sendErrs[chatID] = errs[1:]
		if errs[0] != nil {
			f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: "<failed>"})
			return 0, errs[0]
		}
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Options: options})
	return f.nextID, nil
}

func (f *fakeClient) DeleteMessage(chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[chatID] = append(f.deleted[chatID], messageID)
	return nil
}

func (f *fakeClient) BotMemberStatus(chatID int64) (telebot.MemberStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.statuses[chatID]; ok {
		return st, nil
	}
	return "", errors.New("member lookup unavailable")
}

func (f *fakeClient) delivered(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.ChatID == chatID && m.Text != "<failed>" {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeClient) attempts(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.ChatID == chatID {
			n++
		}
	}
	return n
}

type repos struct {
	chats    *idb.SQLChatRepository
	stats    *idb.SQLStatsRepository
	settings *idb.SQLSettingsRepository
	pending  *idb.SQLPendingRepository
}

func quietLogger() *logrus.Entry {
	return logger.Discard("test")
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db, err := idb.Open("sqlite3", filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, idb.Migrate(db, quietLogger()))
	return repos{
		chats:    idb.NewSQLChatRepository(db),
		stats:    idb.NewSQLStatsRepository(db),
		settings: idb.NewSQLSettingsRepository(db),
		pending:  idb.NewSQLPendingRepository(db),
	}
}

func tashkent(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tashkent")
	require.NoError(t, err)
	return loc
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func mustUpsert(t *testing.T, r repos, id int64, name string) {
	t.Helper()
	require.NoError(t, r.chats.Upsert(context.Background(), id, name, ""))
}
