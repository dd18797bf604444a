package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/chat"
	"class_schedule_bot/internal/domain/stats"
)

const (
	textThrottled       = "Biroz kuting 🙂"
	textPrivateOnly     = "Iltimos, bot bilan shaxsiy suhbatda muloqot qiling. Tugmani bosing:"
	textNotAdmin        = "Siz admin emassiz."
	textForbidden       = "Ruxsat yo'q."
	textAdminPanel      = "⚙️ Admin panel:"
	textSunday          = "😴 Yakshanba — dars yo'q."
	textSettings        = "⚙️ Sozlamalar:"
	textMainMenu        = "🔙 Asosiy menyu:"
	textStopped         = "🛑 Obuna bekor qilindi.\nQayta yoqish uchun /start."
	textLanguageUz      = "🌍 Til: O'zbek tanlandi"
	textCancelled       = "✅ Bekor qilindi."
	textStartFirst      = "Avval /start bosing."
	textChatBanned      = "🚫 Bu chat bloklangan."
	textInternalError   = "❌ Xato yuz berdi. Keyinroq urinib ko'ring."
	textNoChats         = "Hech qanday chat topilmadi."
	textNoBans          = "Bloklangan chatlar yo'q."
	textInvalidTime     = "❌ Noto'g'ri format. HH:MM formatida yuboring (masalan 08:30) yoki /cancel."
	textReminderPrompt  = "🕒 Reminder vaqtini shu formatda yuboring: HH:MM\nMasalan: 07:00\n\n/cancel bilan bekor qiling."
	textBroadcastPrompt = "📣 Iltimos, yuboriladigan xabar matnini shu chatga yuboring.\n\n/cancel bilan bekor qiling."
	textSetTimePrompt   = "🕒 Vaqtni tanlang yoki HH:MM formatida yuboring:"
	textCustomTime      = "🕒 Iltimos, HH:MM formatida vaqt yuboring (masalan 08:30):"
	textBanUsage        = "Foydalanish: /ban <chat_id> [sabab]"
	textUnbanUsage      = "Foydalanish: /unban <chat_id>"
	textBadChatID       = "Xato: chat_id raqam bo'lishi kerak."
)

const textHelp = "ℹ️ *Yordam*\n" +
	"• \"Bugun\" — bugungi darslar\n" +
	"• \"Ertaga\" — ertangi darslar\n" +
	"• \"To'liq jadval\" — hafta jadvali\n" +
	"• \"Sozlamalar\" — reminder va tili\n" +
	"• \"Statistika\" — bot statistikasi\n" +
	"• \"Stop\" — obunani bekor qilish\n\n" +
	"Admin: /admin"

// maxReportedFailures caps the failure list in the broadcast summary.
const maxReportedFailures = 10

type greeting string

const (
	greetToday     greeting = "📌 Bugungi darslar:"
	greetTomorrow  greeting = "➡️ Ertangi darslar:"
	greetYesterday greeting = "◀️ Kechagi darslar:"
	greetFull      greeting = "📅 To'liq jadval:"
)

func friendlyName(firstName string) string {
	if strings.TrimSpace(firstName) == "" {
		return "do'st"
	}
	return firstName
}

func welcomeText(firstName string) string {
	return fmt.Sprintf("✅ Bot tayyor.\n👋 Salom %s!\n\nQuyidagi tugmalarni bosing 👇", friendlyName(firstName))
}

func greetingText(g greeting, firstName string) string {
	return fmt.Sprintf("Salom %s! %s", friendlyName(firstName), g)
}

func statsText(s *stats.Summary) string {
	return fmt.Sprintf("📊 *Bot Statistikasi*\n\n👥 Foydalanuvchilar: %d\n💬 Jami o'zaro muloqot: %d\n🔥 Bugun faol: %d",
		s.TotalUsers, s.TotalInteractions, s.ActiveToday)
}

func reminderStatusText(enabled bool) string {
	status := "🔇 O'chirilgan"
	if enabled {
		status = "✅ Yoqilgan"
	}
	return "🔔 Reminder: " + status
}

func reminderSetText(hhmm string) string {
	return "✅ Reminder vaqti o'rnatildi: " + hhmm
}

func sendTimeSetText(hhmm string) string {
	return "✅ Jo'natish vaqti yangilandi: " + hhmm
}

func dashboardText(d *app.Dashboard) string {
	return fmt.Sprintf("📊 *Admin Boshqaruv Paneli*\n\n"+
		"👥 Jami foydalanuvchilar: %d\n"+
		"💬 Jami muloqot: %d\n"+
		"🔥 Bugun faol: %d\n"+
		"🕒 Jo'natish vaqti: %s\n\n"+
		"Boshqa amallarga admin panelini ishlating.",
		d.Chats, d.Stats.TotalInteractions, d.Stats.ActiveToday, d.SendTime)
}

func adminStatsText(d *app.Dashboard) string {
	return fmt.Sprintf("📈 *Chuqur Statistika*\n\n"+
		"👥 Foydalanuvchilar: %d\n"+
		"💬 Jami muloqot: %d\n"+
		"🔥 Bugun faol: %d\n"+
		"🕐 Hozirgi jo'natish vaqti: %s",
		d.Chats, d.Stats.TotalInteractions, d.Stats.ActiveToday, d.SendTime)
}

func chatLabel(c *chat.Chat) string {
	if name := c.DisplayName(); name != "" {
		return name
	}
	return strconv.FormatInt(c.ID, 10)
}

func chatListText(p *app.ChatPage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Chatlar: %d ta\n\n", p.Total)
	start := p.Page * app.ChatPageSize
	for i, c := range p.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (%d)", start+i+1, chatLabel(c), c.ID)
	}
	if p.Pages > 1 {
		fmt.Fprintf(&b, "\n\nSahifa %d/%d", p.Page+1, p.Pages)
	}
	return b.String()
}

func chatRemovedText(chatID int64) string {
	return fmt.Sprintf("✅ Chat %d o'chirildi.", chatID)
}

func broadcastReportText(r *app.BroadcastReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Broadcast yuborildi: %d ta guruhga.", r.Sent)
	if len(r.Failures) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\n⚠️ %d ta guruhga yuborilmadi.", len(r.Failures))
	b.WriteString("\n\nXatolar (max 10):")
	for i, f := range r.Failures {
		if i == maxReportedFailures {
			break
		}
		fmt.Fprintf(&b, "\n• %d: %s", f.ChatID, f.Reason)
	}
	return b.String()
}

func bannedListText(bans []*chat.Ban, loc *time.Location) string {
	if len(bans) == 0 {
		return textNoBans
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚫 Bloklangan chatlar: %d ta", len(bans))
	for _, ban := range bans {
		fmt.Fprintf(&b, "\n• %d", ban.ChatID)
		if ban.Reason != "" {
			fmt.Fprintf(&b, " — %s", ban.Reason)
		}
		if ban.BannedAt > 0 {
			fmt.Fprintf(&b, " (%s)", time.Unix(ban.BannedAt, 0).In(loc).Format("2006-01-02 15:04"))
		}
	}
	return b.String()
}

func bannedText(chatID int64) string {
	return fmt.Sprintf("🚫 Chat %d bloklandi.", chatID)
}

func unbannedText(chatID int64) string {
	return fmt.Sprintf("✅ Chat %d blokdan chiqarildi.", chatID)
}
