package schedule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 was a Monday.
func dayOf(wd time.Weekday) time.Time {
	return time.Date(2024, 1, 1+(int(wd)+6)%7, 12, 0, 0, 0, time.UTC)
}

func TestTomorrow(t *testing.T) {
	cases := map[time.Weekday]time.Weekday{
		time.Monday:   time.Tuesday,
		time.Thursday: time.Friday,
		time.Friday:   time.Saturday,
		time.Saturday: time.Monday,
		time.Sunday:   time.Monday,
	}
	for today, want := range cases {
		assert.Equal(t, want, Tomorrow(dayOf(today)), "tomorrow of %s", today)
	}
}

func TestYesterday(t *testing.T) {
	assert.Equal(t, time.Saturday, Yesterday(dayOf(time.Sunday)))
	assert.Equal(t, time.Sunday, Yesterday(dayOf(time.Monday)))
	assert.Equal(t, time.Tuesday, Yesterday(dayOf(time.Wednesday)))
	assert.Equal(t, time.Wednesday, Today(dayOf(time.Wednesday)))
}

func TestSubjects(t *testing.T) {
	tt := Default()

	_, ok := tt.Subjects(time.Sunday)
	assert.False(t, ok)

	subjects, ok := tt.Subjects(time.Monday)
	require.True(t, ok)
	assert.Equal(t, "Sinf soati", subjects[0])
	assert.Len(t, subjects, 6)
}

func TestFormatDay(t *testing.T) {
	got := FormatDay(time.Tuesday, []string{"Fizika", "Ona tili"})
	assert.Equal(t, "📚 *Seshanba* darslari:\n1. Fizika\n2. Ona tili", got)
}

func TestFormatFull(t *testing.T) {
	got := Default().FormatFull()

	assert.True(t, strings.HasPrefix(got, "📚 *To'liq dars jadvali*\n\n*Dushanba*\n1. Sinf soati\n"))
	assert.Contains(t, got, "6. Geografiya\n\n*Seshanba*\n")
	assert.True(t, strings.HasSuffix(got, "6. Ona tili\n"))
	assert.NotContains(t, got, "Yakshanba")
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("8:30")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 8, Minute: 30}, c)
	assert.Equal(t, "08:30", c.String())
	assert.Equal(t, "30 8 * * *", c.CronSpec())

	c, err = ParseClock(" 23:05 ")
	require.NoError(t, err)
	assert.Equal(t, "23:05", c.String())

	for _, bad := range []string{"24:00", "12:60", "1230", "ab:cd", "", "12:5"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}

func TestParseTimetable(t *testing.T) {
	tt, err := Parse([]byte("Monday: [Algebra, ' Fizika ']\nfriday:\n  - Kimyo\n  - ''\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Algebra", "Fizika"}, tt[time.Monday])
	assert.Equal(t, []string{"Kimyo"}, tt[time.Friday])

	_, err = Parse([]byte("sunday: [Algebra]"))
	assert.Error(t, err)

	_, err = Parse([]byte("monday: []"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timetable.yaml")
	require.NoError(t, os.WriteFile(path, []byte("saturday: [Tarbiya]\n"), 0o600))

	tt, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tarbiya"}, tt[time.Saturday])

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
