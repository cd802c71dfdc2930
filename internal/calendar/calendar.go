// Package calendar buckets class sessions into a 7-day window in the gym's
// timezone and derives their display badge from the wall clock.
package calendar

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
	WeekLength = 7
)

const (
	BadgeScheduled  = "scheduled"
	BadgeInProgress = "in progress"
	BadgeCompleted  = "completed"
	BadgeCancelled  = "cancelled"
)

type DayBucket struct {
	Date     string               `json:"date"`
	Weekday  string               `json:"weekday"`
	IsToday  bool                 `json:"isToday"`
	Sessions []models.SessionView `json:"sessions"`
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

// Week returns the 7 consecutive midnights starting at today + 7*offset days.
func Week(now time.Time, loc *time.Location, offset int) []time.Time {
	local := now.In(loc)
	days := make([]time.Time, 0, WeekLength)
	for i := 0; i < WeekLength; i++ {
		days = append(days, time.Date(local.Year(), local.Month(), local.Day()+offset*WeekLength+i, 0, 0, 0, 0, loc))
	}
	return days
}

// Range returns the first and last date of a window as YYYY-MM-DD.
func Range(days []time.Time) (string, string) {
	if len(days) == 0 {
		return "", ""
	}
	return days[0].Format(DateLayout), days[len(days)-1].Format(DateLayout)
}

// Bucket groups sessions by date into one bucket per day of the window.
// Sessions outside the window are dropped; each bucket is ordered by time
// then id.
func Bucket(sessions []models.SessionView, days []time.Time, today string) []DayBucket {
	buckets := make([]DayBucket, 0, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		date := day.Format(DateLayout)
		index[date] = i
		buckets = append(buckets, DayBucket{
			Date:     date,
			Weekday:  strings.ToLower(day.Weekday().String()),
			IsToday:  date == today,
			Sessions: []models.SessionView{},
		})
	}

	for _, session := range sessions {
		i, ok := index[session.Date]
		if !ok {
			continue
		}
		buckets[i].Sessions = append(buckets[i].Sessions, session)
	}

	for i := range buckets {
		slices.SortStableFunc(buckets[i].Sessions, func(a, b models.SessionView) int {
			if c := cmp.Compare(a.Time, b.Time); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return buckets
}

// Start is the wall-clock start of a session in loc.
func Start(session models.Session, loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation(DateLayout+" "+TimeLayout, session.Date+" "+session.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("session %d start %q %q: %w", session.ID, session.Date, session.Time, err)
	}
	return start, nil
}

// Badge derives the label shown next to a session. A session whose date or
// time cannot be parsed keeps its stored status.
func Badge(session models.Session, now time.Time, loc *time.Location) string {
	switch session.Status {
	case models.SessionCancelled:
		return BadgeCancelled
	case models.SessionCompleted:
		return BadgeCompleted
	}

	start, err := Start(session, loc)
	if err != nil {
		return session.Status
	}
	end := start.Add(time.Duration(session.DurationMin) * time.Minute)

	switch {
	case !now.Before(end):
		return BadgeCompleted
	case !now.Before(start):
		return BadgeInProgress
	default:
		return BadgeScheduled
	}
}

// HasStarted reports whether now is at or past the session start.
func HasStarted(session models.Session, now time.Time, loc *time.Location) (bool, error) {
	start, err := Start(session, loc)
	if err != nil {
		return false, err
	}
	return !now.Before(start), nil
}

// ParseDate validates a YYYY-MM-DD string in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// ValidClock reports whether value is a 24h HH:MM time.
func ValidClock(value string) bool {
	if len(value) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, value)
	return err == nil
}
