package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/pending"
	"class_schedule_bot/internal/domain/schedule"
	idb "class_schedule_bot/internal/infra/database"
	"class_schedule_bot/internal/infra/logger"
	"class_schedule_bot/internal/infra/telegram/keyboards"
)

const testAdminID = 1000

var (
	userAli   = &telebot.User{ID: 5, FirstName: "Ali"}
	userBoss  = &telebot.User{ID: testAdminID, FirstName: "Boss", Username: "boss"}
	groupTenA = &telebot.Chat{ID: -300, Type: telebot.ChatGroup, Title: "10-A"}
)

func privateChat(u *telebot.User) *telebot.Chat {
	return &telebot.Chat{ID: u.ID, Type: telebot.ChatPrivate, FirstName: u.FirstName}
}

type apiCall struct {
	Method string
	Params map[string]any
}

// fakeBotAPI stands in for api.telegram.org and records every method call.
type fakeBotAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	nextID int
	server *httptest.Server
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	api := &fakeBotAPI{nextID: 500}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)
	method := path.Base(r.URL.Path)

	a.mu.Lock()
	a.calls = append(a.calls, apiCall{Method: method, Params: params})
	a.nextID++
	id := a.nextID
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getChatMember":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"status":"administrator","user":{"id":0}}}`)
	default:
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":1,"type":"private"}}}`, id)
	}
}

// sent returns the texts delivered to chatID, in order.
func (a *fakeBotAPI) sent(chatID int64) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, c := range a.calls {
		if c.Method == "sendMessage" && fmt.Sprint(c.Params["chat_id"]) == formatChatID(chatID) {
			out = append(out, fmt.Sprint(c.Params["text"]))
		}
	}
	return out
}

func (a *fakeBotAPI) lastMarkup(chatID int64) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	markup := ""
	for _, c := range a.calls {
		if c.Method == "sendMessage" && fmt.Sprint(c.Params["chat_id"]) == formatChatID(chatID) {
			markup = fmt.Sprint(c.Params["reply_markup"])
		}
	}
	return markup
}

type harness struct {
	bot     *telebot.Bot
	api     *fakeBotAPI
	chats   *idb.SQLChatRepository
	svc     Services
	updates int

	mu   sync.Mutex
	errs []error
}

// newHarness wires the real handlers and services to an offline bot backed by
// SQLite and the fake Bot API. Handlers run synchronously inside ProcessUpdate.
func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	h := &harness{api: newFakeBotAPI(t)}

	b, err := telebot.NewBot(telebot.Settings{
		URL:         h.api.server.URL,
		Token:       "test-token",
		Offline:     true,
		Synchronous: true,
		OnError: func(err error, _ telebot.Context) {
			h.mu.Lock()
			h.errs = append(h.errs, err)
			h.mu.Unlock()
		},
	})
	require.NoError(t, err)
	h.bot = b

	db, err := idb.Open("sqlite3", filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	log := logger.Discard("handlers")
	require.NoError(t, idb.Migrate(db, log))

	h.chats = idb.NewSQLChatRepository(db)
	statsRepo := idb.NewSQLStatsRepository(db)
	client := NewTelebotAdapter(b)
	h.svc = Services{
		Schedule: app.NewScheduleService(h.chats, statsRepo, client, schedule.Default(), time.UTC, log).
			WithMenu(keyboards.MainMenu).
			WithClock(func() time.Time { return now }),
		Chats: app.NewChatService(h.chats, statsRepo, idb.NewSQLPendingRepository(db), 10*time.Second, 15*time.Minute, log),
		Admin: app.NewAdminService(h.chats, statsRepo, idb.NewSQLSettingsRepository(db), client,
			app.AdminIdentity{TelegramID: testAdminID, Username: "boss"},
			app.BroadcastOptions{Attempts: 1},
			log),
		Location: time.UTC,
	}
	_, err = h.svc.Admin.LoadSendTime(context.Background(), schedule.Clock{Hour: 19})
	require.NoError(t, err)

	ctx := context.Background()
	UseMiddleware(ctx, b, h.svc.Chats, log)
	RegisterUserHandlers(ctx, b, h.svc, log)
	RegisterAdminHandlers(ctx, b, h.svc, log)
	RegisterMessageHandlers(ctx, b, h.svc, log)

	t.Cleanup(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		assert.Empty(t, h.errs, "handler errors")
	})
	return h
}

func (h *harness) tap(from *telebot.User, chat *telebot.Chat, unique, data string) {
	payload := "\f" + unique
	if data != "" {
		payload += "|" + data
	}
	h.updates++
	h.bot.ProcessUpdate(telebot.Update{
		ID: h.updates,
		Callback: &telebot.Callback{
			ID:      fmt.Sprintf("cb-%d", h.updates),
			Sender:  from,
			Message: &telebot.Message{ID: 1, Chat: chat},
			Data:    payload,
		},
	})
}

func (h *harness) say(from *telebot.User, chat *telebot.Chat, text string) {
	h.updates++
	h.bot.ProcessUpdate(telebot.Update{
		ID:      h.updates,
		Message: &telebot.Message{ID: h.updates, Sender: from, Chat: chat, Text: text},
	})
}

func (h *harness) membership(chat *telebot.Chat, role telebot.MemberStatus) {
	h.updates++
	h.bot.ProcessUpdate(telebot.Update{
		ID: h.updates,
		MyChatMember: &telebot.ChatMemberUpdate{
			Chat:          chat,
			Sender:        userBoss,
			NewChatMember: &telebot.ChatMember{User: &telebot.User{}, Role: role},
		},
	})
}

func (h *harness) prompt(t *testing.T, ownerID int64) *pending.Input {
	t.Helper()
	in, err := h.svc.Chats.Pending(context.Background(), ownerID)
	require.NoError(t, err)
	return in
}

// 2024-05-19 is a Sunday.
var (
	sunday = time.Date(2024, 5, 19, 10, 0, 0, 0, time.UTC)
	monday = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
)

func TestTodayOnSundayRepliesDayOff(t *testing.T) {
	h := newHarness(t, sunday)

	h.tap(userAli, privateChat(userAli), keyboards.BtnToday.Unique, "")

	assert.Equal(t, []string{textSunday}, h.api.sent(userAli.ID))
	_, err := h.chats.Get(context.Background(), userAli.ID)
	assert.NoError(t, err, "chat registered on first use")
}

func TestTodaySendsGreetingThenSchedule(t *testing.T) {
	h := newHarness(t, monday)

	h.say(userAli, privateChat(userAli), "/today")

	msgs := h.api.sent(userAli.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, greetingText(greetToday, "Ali"), msgs[0])
	assert.Contains(t, msgs[1], "*Dushanba* darslari")
	assert.Contains(t, h.api.lastMarkup(userAli.ID), "cmd_today")
}

func TestStartWelcomesAndRefusesBannedChat(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)

	h.say(userAli, privateChat(userAli), "/start")
	assert.Equal(t, []string{welcomeText("Ali")}, h.api.sent(userAli.ID))

	banned := &telebot.User{ID: 77, FirstName: "Spam"}
	require.NoError(t, h.svc.Admin.Ban(ctx, banned.ID, "spam"))
	h.say(banned, privateChat(banned), "/start")
	assert.Equal(t, []string{textChatBanned}, h.api.sent(banned.ID))
	_, err := h.chats.Get(ctx, banned.ID)
	assert.ErrorIs(t, err, idb.ErrChatNotFound)
}

func TestAdminCallbacksRequireAdmin(t *testing.T) {
	h := newHarness(t, monday)

	h.say(userAli, privateChat(userAli), "/admin")
	h.tap(userAli, privateChat(userAli), keyboards.BtnAdminDashboard.Unique, "")
	h.say(userAli, privateChat(userAli), "/ban -300")
	assert.Equal(t, []string{textNotAdmin, textForbidden, textForbidden}, h.api.sent(userAli.ID))

	h.tap(userBoss, privateChat(userBoss), keyboards.BtnAdminDashboard.Unique, "")
	msgs := h.api.sent(userBoss.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Admin Boshqaruv Paneli")
}

func TestAdminTimeCustomPromptsAndPresetApplies(t *testing.T) {
	h := newHarness(t, monday)
	boss := privateChat(userBoss)

	h.tap(userBoss, boss, keyboards.BtnAdminTime.Unique, keyboards.TimeCustom)
	assert.Equal(t, []string{textCustomTime}, h.api.sent(userBoss.ID))
	in := h.prompt(t, userBoss.ID)
	require.NotNil(t, in)
	assert.Equal(t, pending.ActionSendTime, in.Action)
	assert.Equal(t, "19:00", h.svc.Admin.SendTime().String())

	h.tap(userBoss, boss, keyboards.BtnAdminTime.Unique, "08:00")
	msgs := h.api.sent(userBoss.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, sendTimeSetText("08:00"), msgs[1])
	assert.Equal(t, "08:00", h.svc.Admin.SendTime().String())
	assert.Nil(t, h.prompt(t, userBoss.ID))
}

func TestReminderTimePrompt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)
	ali := privateChat(userAli)
	require.NoError(t, h.chats.Upsert(ctx, userAli.ID, "Ali", ""))

	h.tap(userAli, ali, keyboards.BtnReminderTime.Unique, "")
	h.say(userAli, ali, "99:99")
	h.say(userAli, ali, "7:30")

	assert.Equal(t, []string{textReminderPrompt, textInvalidTime, reminderSetText("07:30")}, h.api.sent(userAli.ID))
	c, err := h.chats.Get(ctx, userAli.ID)
	require.NoError(t, err)
	assert.Equal(t, "07:30", c.ReminderTime)
	assert.Nil(t, h.prompt(t, userAli.ID))
}

func TestReminderTimeForUnsubscribedChat(t *testing.T) {
	h := newHarness(t, monday)
	stranger := &telebot.User{ID: 777, FirstName: "Vali"}

	h.tap(stranger, privateChat(stranger), keyboards.BtnReminderTime.Unique, "")
	h.say(stranger, privateChat(stranger), "07:00")

	assert.Equal(t, []string{textReminderPrompt, textStartFirst}, h.api.sent(stranger.ID))
	assert.Nil(t, h.prompt(t, stranger.ID))
}

func TestSendTimeTypedByAdmin(t *testing.T) {
	h := newHarness(t, monday)
	boss := privateChat(userBoss)

	h.tap(userBoss, boss, keyboards.BtnAdminSetTime.Unique, "")
	h.say(userBoss, boss, "9:15")

	assert.Equal(t, []string{textSetTimePrompt, sendTimeSetText("09:15")}, h.api.sent(userBoss.ID))
	assert.Equal(t, "09:15", h.svc.Admin.SendTime().String())
}

func TestBroadcastPrompt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)
	boss := privateChat(userBoss)
	require.NoError(t, h.chats.Upsert(ctx, groupTenA.ID, groupTenA.Title, ""))

	h.tap(userBoss, boss, keyboards.BtnAdminBroadcast.Unique, "")
	h.say(userBoss, boss, "Ertaga dars yo'q")

	assert.Equal(t, []string{"📣 Admin xabari\n\nErtaga dars yo'q"}, h.api.sent(groupTenA.ID))
	assert.Equal(t, []string{textBroadcastPrompt, broadcastReportText(&app.BroadcastReport{Sent: 1})}, h.api.sent(userBoss.ID))
	assert.Nil(t, h.prompt(t, userBoss.ID))
}

func TestAdminPromptHeldByNonAdminIsDropped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)
	require.NoError(t, h.chats.Upsert(ctx, groupTenA.ID, groupTenA.Title, ""))
	require.NoError(t, h.svc.Chats.Prompt(ctx, userAli.ID, pending.ActionBroadcast, ""))

	h.say(userAli, privateChat(userAli), "hammaga salom")

	assert.Empty(t, h.api.sent(groupTenA.ID))
	assert.Empty(t, h.api.sent(userAli.ID))
	assert.Nil(t, h.prompt(t, userAli.ID))
}

func TestCancelClearsPrompt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)
	require.NoError(t, h.svc.Chats.Prompt(ctx, userAli.ID, pending.ActionReminderTime, "5"))

	h.say(userAli, privateChat(userAli), "/cancel")

	assert.Equal(t, []string{textCancelled}, h.api.sent(userAli.ID))
	assert.Nil(t, h.prompt(t, userAli.ID))
}

func TestMyChatMemberTracksGroups(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)
	nineB := &telebot.Chat{ID: -200, Type: telebot.ChatSuperGroup, Title: "9-B"}

	for _, tc := range []struct {
		role    telebot.MemberStatus
		present bool
	}{
		{telebot.Member, true},
		{telebot.Kicked, false},
		{telebot.Administrator, true},
		{telebot.Left, false},
	} {
		h.membership(nineB, tc.role)
		c, err := h.chats.Get(ctx, nineB.ID)
		if tc.present {
			require.NoError(t, err, tc.role)
			assert.Equal(t, "9-B", c.FirstName)
		} else {
			assert.ErrorIs(t, err, idb.ErrChatNotFound, tc.role)
		}
	}
	assert.Empty(t, h.api.sent(nineB.ID))
}

func TestGroupTextRegistersChat(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, monday)

	h.say(userAli, groupTenA, "salom")

	c, err := h.chats.Get(ctx, groupTenA.ID)
	require.NoError(t, err)
	assert.Equal(t, "10-A", c.FirstName)
	assert.Empty(t, h.api.sent(groupTenA.ID))

	h.say(userAli, privateChat(userAli), "salom")
	_, err = h.chats.Get(ctx, userAli.ID)
	assert.ErrorIs(t, err, idb.ErrChatNotFound, "private chatter is not auto-registered")
}

func TestHelpCommand(t *testing.T) {
	h := newHarness(t, monday)

	h.say(userAli, privateChat(userAli), "/help")

	msgs := h.api.sent(userAli.ID)
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "ℹ️ *Yordam*"))
}
