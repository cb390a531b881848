package models

import (
	"time"
)

// RevenueStats aggregates ledger entries by source over a time range.
type RevenueStats struct {
	TotalRevenue      int64
	LobbyRevenue      int64
	TournamentRevenue int64
	RecordCount       int64
	From              time.Time
	To                time.Time
}

// DailyRevenuePoint is one day's bucket of the per-period analytics view.
type DailyRevenuePoint struct {
	Day         time.Time
	Revenue     int64
	RecordCount int64
}

// TopPlayerEntry attributes lobby revenue to a real participant: half of
// each lobby-game ledger amount is credited to each listed real player.
type TopPlayerEntry struct {
	ParticipantID     string
	Username          string
	AttributedRevenue int64
	GamesPlayed       int64
}

// RevenueFilter narrows revenue history queries by source and date range.
// Nil fields are unconstrained.
type RevenueFilter struct {
	Source *RevenueSource
	From   *time.Time
	To     *time.Time
}

// SettlementResult is what the settlement engine returns once the
// transaction has committed.
type SettlementResult struct {
	MatchID        string
	BalanceDeltas  map[string]int64
	LedgerAmount   int64
	CommissionRate int
	RecordID       int64
}
