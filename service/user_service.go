package service

import (
	"context"
	"fmt"

	"skillarena/events"
	"skillarena/models"
)

// InitialBalance is the balance granted to a newly created user account.
const InitialBalance int64 = 1000

type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateUser retrieves an existing user or creates a new one with initial balance
func (s *userService) GetOrCreateUser(ctx context.Context, userID, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// First try to get existing user
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if user == nil {
		// User doesn't exist, create new one with initial balance.
		// The primary key prevents duplicate accounts.
		user, err = uow.UserRepository().Create(ctx, userID, username, InitialBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		uow.EventBus().Publish(events.BalanceChangeEvent{
			UserID:          userID,
			ChangeAmount:    InitialBalance,
			NewBalance:      InitialBalance,
			TransactionType: models.TransactionTypeInitial,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// ChargeEntryFee debits a participant's stake when they enter a match.
// Settlement assumes stakes are already collected; this is the collecting
// side.
func (s *userService) ChargeEntryFee(ctx context.Context, userID string, matchID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("entry fee must not be negative")
	}
	if amount == 0 {
		// Free matches carry no stake
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return 0, err
		}
		return user.Balance, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	newBalance, err := uow.UserRepository().DeductBalance(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to charge entry fee: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          userID,
		MatchID:         matchID,
		ChangeAmount:    -amount,
		NewBalance:      newBalance,
		TransactionType: models.TransactionTypeEntryFee,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return newBalance, nil
}

func (s *userService) getUser(ctx context.Context, userID string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	return user, nil
}
