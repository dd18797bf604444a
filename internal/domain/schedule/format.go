package schedule

import (
	"fmt"
	"strings"
	"time"
)

// FormatDay renders the lessons of a single day as a Markdown message.
func FormatDay(day time.Weekday, subjects []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 *%s* darslari:\n", DayName(day))
	writeNumbered(&b, subjects)
	return strings.TrimSuffix(b.String(), "\n")
}

// FormatFull renders the whole week, Monday through Saturday.
func (t Timetable) FormatFull() string {
	var b strings.Builder
	b.WriteString("📚 *To'liq dars jadvali*\n\n")
	for day := time.Monday; day <= time.Saturday; day++ {
		fmt.Fprintf(&b, "*%s*\n", DayName(day))
		writeNumbered(&b, t[day])
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeNumbered(b *strings.Builder, subjects []string) {
	for i, s := range subjects {
		fmt.Fprintf(b, "%d. %s\n", i+1, s)
	}
}
