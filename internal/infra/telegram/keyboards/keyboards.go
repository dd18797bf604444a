// Package keyboards defines the inline buttons shared by message senders and callback handlers.
package keyboards

import (
	"fmt"
	"strconv"

	"gopkg.in/telebot.v3"
)

var selector = &telebot.ReplyMarkup{}

// User menu.
var (
	BtnToday     = selector.Data("📌 Bugun", "cmd_today")
	BtnTomorrow  = selector.Data("➡️ Ertaga", "cmd_tomorrow")
	BtnYesterday = selector.Data("◀️ Kecha", "cmd_yesterday")
	BtnFull      = selector.Data("📅 To'liq jadval", "cmd_full")
	BtnSettings  = selector.Data("⚙️ Sozlamalar", "cmd_settings")
	BtnStats     = selector.Data("📊 Statistika", "cmd_stats")
	BtnStop      = selector.Data("🛑 Stop", "cmd_stop")
	BtnHelp      = selector.Data("ℹ️ Yordam", "cmd_help")
	BtnBack      = selector.Data("🔙 Orqaga", "cmd_back")
	BtnNoop      = selector.Data("📩 Yozish (ochilmaydi)", "noop")
)

// Settings menu.
var (
	BtnToggleReminder = selector.Data("🔔 Reminder On/Off", "settings_toggle_reminder")
	BtnLanguageUz     = selector.Data("🌍 Til: O'zbek", "settings_lang_uz")
	BtnReminderTime   = selector.Data("🕒 Reminder vaqti", "settings_reminder_time")
)

// Admin menu. BtnAdminTime, BtnAdminRemove and BtnAdminPage carry a payload
// and are only used as handler endpoints; visible buttons are built per use.
var (
	BtnAdminDashboard = selector.Data("📊 Boshqaruv paneli", "admin_dashboard")
	BtnAdminBroadcast = selector.Data("📢 Broadcast", "admin_broadcast")
	BtnAdminList      = selector.Data("📋 Chatlar", "admin_list")
	BtnAdminSetTime   = selector.Data("🕒 Jo'natish vaqti", "admin_set_time")
	BtnAdminStats     = selector.Data("📈 Statistika", "admin_stats")
	BtnAdminBack      = selector.Data("🔙 Orqaga", "admin_back")
	BtnAdminTime      = selector.Data("", "admin_time")
	BtnAdminRemove    = selector.Data("", "admin_remove")
	BtnAdminPage      = selector.Data("", "admin_page")
)

// TimeCustom is the admin_time payload asking for a typed HH:MM.
const TimeCustom = "custom"

// PresetSendTimes are offered as one-tap choices in the send time menu.
var PresetSendTimes = []string{"08:00", "12:00", "18:00", "20:00"}

func MainMenu() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(BtnToday, BtnTomorrow),
		m.Row(BtnFull, BtnSettings),
		m.Row(BtnStats, BtnStop),
		m.Row(BtnHelp),
	)
	return m
}

// StartMenu is the reduced keyboard shown right after /start.
func StartMenu() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(BtnTomorrow, BtnToday),
		m.Row(BtnYesterday, BtnHelp),
	)
	return m
}

func SettingsMenu() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(BtnToggleReminder, BtnLanguageUz),
		m.Row(BtnReminderTime, BtnBack),
	)
	return m
}

func AdminMenu() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(BtnAdminDashboard, BtnAdminBroadcast),
		m.Row(BtnAdminList, BtnAdminSetTime),
		m.Row(BtnAdminStats, BtnAdminBack),
	)
	return m
}

func AdminTimeMenu() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	presets := make([]telebot.Btn, 0, len(PresetSendTimes))
	for _, t := range PresetSendTimes {
		presets = append(presets, m.Data(t, BtnAdminTime.Unique, t))
	}
	m.Inline(
		m.Row(presets[:3]...),
		m.Row(presets[3], m.Data("Custom", BtnAdminTime.Unique, TimeCustom)),
		m.Row(BtnAdminBack),
	)
	return m
}

// ChatListMenu has one remove button per listed chat plus paging controls.
func ChatListMenu(chatIDs []int64, page, pages int) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(chatIDs)+2)
	for _, id := range chatIDs {
		idStr := strconv.FormatInt(id, 10)
		rows = append(rows, m.Row(m.Data("❌ "+idStr, BtnAdminRemove.Unique, idStr)))
	}

	var nav []telebot.Btn
	if page > 0 {
		nav = append(nav, m.Data("⬅️", BtnAdminPage.Unique, strconv.Itoa(page-1)))
	}
	if page+1 < pages {
		nav = append(nav, m.Data("➡️", BtnAdminPage.Unique, strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, m.Row(nav...))
	}
	rows = append(rows, m.Row(BtnAdminBack))
	m.Inline(rows...)
	return m
}

// PrivateChatLink points group members to a direct chat with the bot.
// Without a known bot username the button is inert.
func PrivateChatLink(botUsername string) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	if botUsername == "" {
		m.Inline(m.Row(BtnNoop))
		return m
	}
	m.Inline(m.Row(m.URL("📩 Shaxsiy suhbatga o'tish", fmt.Sprintf("https://t.me/%s", botUsername))))
	return m
}
