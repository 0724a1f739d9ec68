package domain

import "time"

// RawTransition - строка фида перемещений до разбора временных меток
type RawTransition struct {
	Line        int    `json:"line" db:"line"`
	Origin      int64  `json:"origin" db:"origin"`
	Destination int64  `json:"destination" db:"destination"`
	Departure   string `json:"departure" db:"departure"`
	Arrival     string `json:"arrival" db:"arrival"`
}

// MovementEvent - перемещение особи из origin в destination
type MovementEvent struct {
	Origin      int64     `json:"origin"`
	Destination int64     `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
}

// FeedStats - итоги чтения фида
type FeedStats struct {
	Rows      int `json:"rows"`
	Malformed int `json:"malformed"`
}
