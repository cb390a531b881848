package service

import (
	"context"
	"errors"
	"testing"

	"skillarena/events"
	"skillarena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserServiceFixture() (UserService, *MockUnitOfWorkFactory, *MockUnitOfWork, *MockUserRepository, *MockEventPublisher) {
	mockUserRepo := new(MockUserRepository)
	mockEventBus := new(MockEventPublisher)

	mockUow := new(MockUnitOfWork)
	mockUow.SetRepositories(mockUserRepo, new(MockRevenueRepository), mockEventBus)

	mockFactory := new(MockUnitOfWorkFactory)

	return NewUserService(mockFactory), mockFactory, mockUow, mockUserRepo, mockEventBus
}

func TestGetOrCreateUser_ExistingUser(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockEventBus := newUserServiceFixture()
	ctx := context.Background()

	existing := &models.User{ID: "alice", Username: "Alice", Balance: 500}

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, "alice").Return(existing, nil)

	user, err := svc.GetOrCreateUser(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, existing, user)

	mockUserRepo.AssertNotCalled(t, "Create")
	mockEventBus.AssertNotCalled(t, "Publish")
}

func TestGetOrCreateUser_NewUser(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockEventBus := newUserServiceFixture()
	ctx := context.Background()

	created := &models.User{ID: "alice", Username: "Alice", Balance: InitialBalance}

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, "alice").Return(nil, nil)
	mockUserRepo.On("Create", ctx, "alice", "Alice", InitialBalance).Return(created, nil)

	mockEventBus.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		e, ok := event.(events.BalanceChangeEvent)
		return ok && e.UserID == "alice" && e.ChangeAmount == InitialBalance &&
			e.TransactionType == models.TransactionTypeInitial
	})).Return()

	user, err := svc.GetOrCreateUser(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, InitialBalance, user.Balance)

	mockUserRepo.AssertExpectations(t)
	mockEventBus.AssertExpectations(t)
}

func TestChargeEntryFee(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockEventBus := newUserServiceFixture()
	ctx := context.Background()

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("DeductBalance", ctx, "alice", int64(50)).Return(int64(950), nil)

	mockEventBus.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		e, ok := event.(events.BalanceChangeEvent)
		return ok && e.UserID == "alice" && e.MatchID == "lobby-abc" &&
			e.ChangeAmount == -50 && e.NewBalance == 950 &&
			e.TransactionType == models.TransactionTypeEntryFee
	})).Return()

	newBalance, err := svc.ChargeEntryFee(ctx, "alice", "lobby-abc", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(950), newBalance)

	mockUserRepo.AssertExpectations(t)
	mockEventBus.AssertExpectations(t)
}

func TestChargeEntryFee_InsufficientFunds(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockEventBus := newUserServiceFixture()
	ctx := context.Background()

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("DeductBalance", ctx, "alice", int64(5000)).
		Return(int64(0), errors.New("insufficient balance"))

	_, err := svc.ChargeEntryFee(ctx, "alice", "lobby-abc", 5000)
	require.Error(t, err)

	mockUow.AssertNotCalled(t, "Commit")
	mockEventBus.AssertNotCalled(t, "Publish")
}

func TestChargeEntryFee_NegativeAmount(t *testing.T) {
	svc, _, _, _, _ := newUserServiceFixture()

	_, err := svc.ChargeEntryFee(context.Background(), "alice", "lobby-abc", -1)
	assert.Error(t, err)
}

func TestChargeEntryFee_ZeroAmount(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, _ := newUserServiceFixture()
	ctx := context.Background()

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, "alice").
		Return(&models.User{ID: "alice", Balance: 700}, nil)

	newBalance, err := svc.ChargeEntryFee(ctx, "alice", "lobby-abc", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(700), newBalance)

	mockUserRepo.AssertNotCalled(t, "DeductBalance")
}
