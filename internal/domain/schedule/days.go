package schedule

import "time"

var dayNames = [...]string{"Yakshanba", "Dushanba", "Seshanba", "Chorshanba", "Payshanba", "Juma", "Shanba"}

// DayName returns the Uzbek name of the weekday.
func DayName(day time.Weekday) string {
	return dayNames[day%7]
}

// Today returns the weekday of now.
func Today(now time.Time) time.Weekday {
	return now.Weekday()
}

// Tomorrow returns the next school day. Saturday and Sunday both roll over to Monday.
func Tomorrow(now time.Time) time.Weekday {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return time.Monday
	default:
		return now.Weekday() + 1
	}
}

// Yesterday returns the previous weekday. On Monday this is Sunday, which has no lessons.
func Yesterday(now time.Time) time.Weekday {
	if now.Weekday() == time.Sunday {
		return time.Saturday
	}
	return now.Weekday() - 1
}
