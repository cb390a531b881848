package service

import (
	"context"
	"time"

	"skillarena/events"
	"skillarena/models"
)

// UserRepository defines the interface for balance store access. Balances
// are only ever mutated through atomic signed deltas.
type UserRepository interface {
	// GetByID retrieves a user by their platform ID
	GetByID(ctx context.Context, userID string) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, userID, username string, initialBalance int64) (*models.User, error)

	// AddBalance atomically credits a user and returns the new balance
	AddBalance(ctx context.Context, userID string, amount int64) (int64, error)

	// DeductBalance atomically debits a user, failing on insufficient funds,
	// and returns the new balance
	DeductBalance(ctx context.Context, userID string, amount int64) (int64, error)
}

// RevenueRepository defines the interface for the append-only revenue ledger
type RevenueRepository interface {
	// Record appends a new revenue record; exactly one per match id
	Record(ctx context.Context, record *models.RevenueRecord) error

	// GetByMatchID retrieves the revenue record for a match, if any
	GetByMatchID(ctx context.Context, matchID string) (*models.RevenueRecord, error)

	// List returns records matching the filter, newest first, plus the total count
	List(ctx context.Context, filter models.RevenueFilter, limit, offset int) ([]*models.RevenueRecord, int64, error)

	// GetStats aggregates revenue by source over a time range
	GetStats(ctx context.Context, from, to time.Time) (*models.RevenueStats, error)

	// GetDailyRevenue buckets revenue by day over a time range
	GetDailyRevenue(ctx context.Context, from, to time.Time) ([]*models.DailyRevenuePoint, error)

	// GetTopPlayers ranks real users by attributed lobby revenue
	GetTopPlayers(ctx context.Context, from, to time.Time, limit int) ([]*models.TopPlayerEntry, error)
}

// SettlementService is the financial core: it turns a finished match into
// balance deltas plus exactly one immutable ledger entry, atomically.
type SettlementService interface {
	// Settle applies the monetary outcome of a finished lobby match. It is
	// safe to retry after an error: either everything committed or nothing
	// did. A match with no real participant settles to a no-op result.
	Settle(ctx context.Context, outcome *models.SettlementOutcome) (*models.SettlementResult, error)

	// RecordTournamentRevenue recognizes tournament revenue once, at overall
	// completion, as entry fees minus prizes paid.
	RecordTournamentRevenue(ctx context.Context, tournamentID string, totalEntryFees, totalPrizePaid int64, participantCount int) (*models.RevenueRecord, error)
}

// UserService defines account-level operations around the balance store
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates one with the initial balance
	GetOrCreateUser(ctx context.Context, userID, username string) (*models.User, error)

	// ChargeEntryFee debits a participant's stake at match entry
	ChargeEntryFee(ctx context.Context, userID string, matchID string, amount int64) (int64, error)
}

// RevenueStatsService is the read-only query surface over the ledger for
// operational and admin tooling.
type RevenueStatsService interface {
	// GetRevenueStats aggregates revenue by source over a time range
	GetRevenueStats(ctx context.Context, from, to time.Time) (*models.RevenueStats, error)

	// GetRevenueHistory returns a page of ledger entries matching the filter
	GetRevenueHistory(ctx context.Context, filter models.RevenueFilter, limit, offset int) ([]*models.RevenueRecord, int64, error)

	// GetDailyRevenue buckets revenue by day
	GetDailyRevenue(ctx context.Context, from, to time.Time) ([]*models.DailyRevenuePoint, error)

	// GetTopPlayers ranks real users by attributed lobby revenue
	GetTopPlayers(ctx context.Context, from, to time.Time, limit int) ([]*models.TopPlayerEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	RevenueRepository() RevenueRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
