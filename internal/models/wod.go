package models

import "time"

type WOD struct {
	Date     string   `json:"date"`
	Title    string   `json:"title"`
	Intent   string   `json:"intent"`
	Warmup   []string `json:"warmup"`
	Strength []string `json:"strength"`
	Metcon   []string `json:"metcon"`
	RX       []string `json:"rx"`
	Scaled   []string `json:"scaled"`
}

type WODComment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
