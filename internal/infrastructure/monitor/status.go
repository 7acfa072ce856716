package monitor

import "time"

type Status struct {
	PostgreSQL   bool      `json:"postgresql"`
	Redis        bool      `json:"redis"`
	AlertJournal bool      `json:"alert_journal"`
	TrackedItems int       `json:"tracked_items"`
	LastCheck    time.Time `json:"last_check"`
}
