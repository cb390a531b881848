package service

import (
	"context"
	"errors"
	"fmt"

	"skillarena/config"
	"skillarena/events"
	"skillarena/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

// Settle applies the monetary outcome of a finished lobby match inside a
// single transaction: balance credits and exactly one immutable revenue
// record either all commit or none do. A failed call leaves no trace and
// may be retried; a retry that races an already-committed settlement is
// refused by the ledger's unique match index.
func (s *settlementService) Settle(ctx context.Context, outcome *models.SettlementOutcome) (*models.SettlementResult, error) {
	if outcome == nil {
		return nil, fmt.Errorf("outcome must not be nil")
	}

	cfg := config.Get()
	plan, err := buildPayoutPlan(outcome, cfg.WinCommissionPercent, cfg.DrawCommissionPercent)
	if err != nil {
		return nil, fmt.Errorf("failed to build payout plan: %w", err)
	}

	result := &models.SettlementResult{
		MatchID:        outcome.MatchID,
		BalanceDeltas:  make(map[string]int64),
		LedgerAmount:   plan.LedgerAmount,
		CommissionRate: plan.CommissionRate,
	}

	// Bot-vs-bot matches never touch money: skip the transactional path
	// entirely, before anything could be written.
	if plan.Variant == VariantBotVsBotNoop {
		log.WithFields(log.Fields{
			"matchId": outcome.MatchID,
		}).Info("Match had no real participant, skipping settlement")
		return result, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}
	defer uow.Rollback() // No-op if already committed

	// Apply balance credits as atomic deltas. Zero-bet matches produce
	// zero-amount credits; nothing moves, so they are skipped rather than
	// sent to the store, which only accepts positive deltas.
	for _, credit := range plan.Credits {
		if credit.Amount == 0 {
			continue
		}
		newBalance, err := uow.UserRepository().AddBalance(ctx, credit.UserID, credit.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to credit user %s: %w", ErrSettlementFailed, credit.UserID, err)
		}
		result.BalanceDeltas[credit.UserID] = credit.Amount

		// Held on the transactional bus until commit, so clients only ever
		// see balances that actually moved.
		uow.EventBus().Publish(events.BalanceChangeEvent{
			UserID:          credit.UserID,
			MatchID:         outcome.MatchID,
			ChangeAmount:    credit.Amount,
			NewBalance:      newBalance,
			TransactionType: credit.TransactionType,
		})
	}

	// Write the single immutable ledger entry
	record := &models.RevenueRecord{
		Source:         models.RevenueSourceLobby,
		GameType:       outcome.GameType,
		Amount:         plan.LedgerAmount,
		CommissionRate: plan.CommissionRate,
		Description:    plan.Description,
		MatchID:        outcome.MatchID,
		Participants:   plan.Participants,
	}

	if err := uow.RevenueRepository().Record(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateMatchRecord) {
			// A concurrent trigger already settled this match; surface the
			// duplicate so the caller stands down without re-applying money.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}

	uow.EventBus().Publish(events.RevenueRecordedEvent{
		RecordID: record.ID,
		MatchID:  outcome.MatchID,
		Source:   models.RevenueSourceLobby,
		Amount:   record.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}

	result.RecordID = record.ID

	log.WithFields(log.Fields{
		"matchId":        outcome.MatchID,
		"variant":        plan.Variant,
		"ledgerAmount":   plan.LedgerAmount,
		"commissionRate": plan.CommissionRate,
		"recordId":       record.ID,
	}).Info("Match settled")

	return result, nil
}

// RecordTournamentRevenue recognizes a tournament's platform revenue once,
// at overall completion, as entry fees minus prizes paid. Per-match
// tournament results never produce ledger entries.
func (s *settlementService) RecordTournamentRevenue(ctx context.Context, tournamentID string, totalEntryFees, totalPrizePaid int64, participantCount int) (*models.RevenueRecord, error) {
	if tournamentID == "" {
		return nil, fmt.Errorf("tournament ID must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}
	defer uow.Rollback()

	record := &models.RevenueRecord{
		Source:        models.RevenueSourceTournament,
		TournamentRef: &tournamentID,
		Amount:        totalEntryFees - totalPrizePaid,
		Description: fmt.Sprintf("Tournament %s completed: %d participants, %d entry fees, %d prizes paid",
			tournamentID, participantCount, totalEntryFees, totalPrizePaid),
		MatchID: "tournament-" + tournamentID,
	}

	if err := uow.RevenueRepository().Record(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateMatchRecord) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}

	uow.EventBus().Publish(events.RevenueRecordedEvent{
		RecordID: record.ID,
		MatchID:  record.MatchID,
		Source:   models.RevenueSourceTournament,
		Amount:   record.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}

	log.WithFields(log.Fields{
		"tournamentId":     tournamentID,
		"revenue":          record.Amount,
		"participantCount": participantCount,
	}).Info("Tournament revenue recorded")

	return record, nil
}
