package storage

import "time"

// Alert directions, derived once when the alert is created or updated.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// Alert history kinds.
const (
	KindPrice = "price"
	KindPanic = "panic"
)

// WatchedStock is an instrument a user monitors. The reference price is a
// display baseline only, never a trigger condition.
type WatchedStock struct {
	UserID         int64   `json:"user_id"`
	Ticker         string  `json:"ticker"`
	ReferencePrice float64 `json:"reference_price"`
}

// PriceAlert fires at most once until the user re-arms it by recreating or
// editing the alert, which resets Notified.
type PriceAlert struct {
	UserID      int64   `json:"user_id"`
	Ticker      string  `json:"ticker"`
	TargetPrice float64 `json:"target_price"`
	Direction   string  `json:"direction"`
	Notified    bool    `json:"notified"`
}

// PanicAlert triggers on a day-over-day drawdown at the user's configured
// check time.
type PanicAlert struct {
	UserID           int64   `json:"user_id"`
	Ticker           string  `json:"ticker"`
	Active           bool    `json:"active"`
	DropThresholdPct float64 `json:"drop_threshold_pct"`
}

// UserSettings holds per-user scheduling preferences. The *LastDate fields
// record the last local date (YYYY-MM-DD) each daily schedule ran, so a
// schedule fires once per day at the first tick at or after its time.
type UserSettings struct {
	UserID         int64  `json:"user_id"`
	AutoDigest     bool   `json:"auto_digest"`
	DigestTime     string `json:"digest_time"`
	PanicCheckTime string `json:"panic_check_time"`
	DigestLastDate string `json:"-"`
	PanicLastDate  string `json:"-"`
}

// HistoryEntry is an immutable record of a fired alert.
type HistoryEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Ticker       string    `json:"ticker"`
	Kind         string    `json:"kind"`
	TriggerValue float64   `json:"trigger_value"`
	TriggeredAt  time.Time `json:"triggered_at"`
	Message      string    `json:"message"`
}

// DashboardUser grants web dashboard access. KeyHash is a bcrypt hash of the
// generated access key.
type DashboardUser struct {
	UserID    int64  `json:"user_id"`
	KeyHash   string `json:"-"`
	Username  string `json:"username"`
	Theme     string `json:"theme"`
	LastLogin string `json:"last_login"`
}

// PortfolioPosition is a user's holding in one instrument.
type PortfolioPosition struct {
	UserID   int64   `json:"user_id"`
	Ticker   string  `json:"ticker"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}
