package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthAmount is the total of one calendar month.
type MonthAmount struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Label  string     `json:"label"`
	Amount Money      `json:"amount"`
}

// PreviousMonth returns the calendar month before (year, month), rolling
// January back to December of the prior year.
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
