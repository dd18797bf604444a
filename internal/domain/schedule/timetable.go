package schedule

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Timetable maps a weekday to its ordered list of lessons.
// Sunday is a day off and never has an entry.
type Timetable map[time.Weekday][]string

// Default returns the built-in weekly timetable.
func Default() Timetable {
	return Timetable{
		time.Monday:    {"Sinf soati", "Ingliz tili", "Adabiyot", "Algebra", "Informatika", "Geografiya"},
		time.Tuesday:   {"Fizika", "Ona tili", "O'zb tarix", "Ingliz tili", "Geometriya", "Jismoniy tarbiya"},
		time.Wednesday: {"Kimyo", "Informatika", "Geografiya", "Algebra", "Fizika", "Rus tili"},
		time.Thursday:  {"Adabiyot", "O'zb tarix", "Biologiya", "Texnologiya", "Geometriya", "Ingliz tili"},
		time.Friday:    {"Ingliz tili", "Jahon tarixi", "Algebra", "Rus tili", "Fizika", "Tarbiya"},
		time.Saturday:  {"Kimyo", "Biologiya", "Algebra", "San'art", "Geometriya", "Ona tili"},
	}
}

// Subjects returns the lessons for the given day and whether the day has any.
func (t Timetable) Subjects(day time.Weekday) ([]string, bool) {
	if day == time.Sunday {
		return nil, false
	}
	subjects, ok := t[day]
	if !ok || len(subjects) == 0 {
		return nil, false
	}
	return subjects, true
}

var weekdaysByName = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadFile reads a timetable from a YAML file of the form
//
//	monday: [Algebra, Fizika]
//	tuesday: [Kimyo]
//
// Day names are case-insensitive. Sunday is rejected.
func LoadFile(path string) (Timetable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timetable file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML timetable document.
func Parse(data []byte) (Timetable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse timetable YAML: %w", err)
	}

	t := make(Timetable, len(raw))
	for name, subjects := range raw {
		day, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown timetable day %q", name)
		}
		cleaned := make([]string, 0, len(subjects))
		for _, s := range subjects {
			if s = strings.TrimSpace(s); s != "" {
				cleaned = append(cleaned, s)
			}
		}
		if len(cleaned) > 0 {
			t[day] = cleaned
		}
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("timetable has no lessons")
	}
	return t, nil
}
