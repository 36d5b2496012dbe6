package models

// DailyStats is one bucket of a per-day series.
type DailyStats struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}
