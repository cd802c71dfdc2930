package models

import "time"

// GymClass is a recurring weekly class template. Sessions are materialized
// from it per date.
type GymClass struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Program     string    `json:"program"`
	Type        string    `json:"type"`
	Coach       string    `json:"coach"`
	Day         string    `json:"day"`
	Time        string    `json:"time"`
	DurationMin int       `json:"durationMin"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
