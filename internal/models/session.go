package models

import "time"

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"

	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

type SessionClass struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Coach string `json:"coach"`
	Type  string `json:"type"`
}

type Session struct {
	ID            int64        `json:"id"`
	Date          string       `json:"date"`
	Time          string       `json:"time"`
	DurationMin   int          `json:"durationMin"`
	Capacity      int          `json:"capacity"`
	ReservedCount int          `json:"reservedCount"`
	Status        string       `json:"status"`
	Class         SessionClass `json:"class"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// SessionView is a session as seen by one athlete.
type SessionView struct {
	Session
	Badge      string  `json:"badge"`
	Reserved   bool    `json:"reserved"`
	Attendance *string `json:"attendance"`
}

type Reservation struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	AthleteID int64     `json:"athleteId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Attendance struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	AthleteID int64     `json:"athleteId"`
	Status    string    `json:"status"`
	MarkedBy  *int64    `json:"markedBy,omitempty"`
	MarkedAt  time.Time `json:"markedAt"`
}

// RosterEntry is one reserved athlete on a session roster.
type RosterEntry struct {
	AthleteID  int64     `json:"athleteId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ReservedAt time.Time `json:"reservedAt"`
	Attendance *string   `json:"attendance"`
}
