package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"skillarena/events"
	"skillarena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("ENVIRONMENT", "test")
	os.Exit(m.Run())
}

func newSettlementFixture() (*settlementService, *MockUnitOfWorkFactory, *MockUnitOfWork, *MockUserRepository, *MockRevenueRepository, *MockEventPublisher) {
	mockUserRepo := new(MockUserRepository)
	mockRevenueRepo := new(MockRevenueRepository)
	mockEventBus := new(MockEventPublisher)

	mockUow := new(MockUnitOfWork)
	mockUow.SetRepositories(mockUserRepo, mockRevenueRepo, mockEventBus)

	mockFactory := new(MockUnitOfWorkFactory)

	svc := NewSettlementService(mockFactory).(*settlementService)
	return svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus
}

func pvpWinOutcome(betAmount int64) *models.SettlementOutcome {
	alice := player("alice", "Alice")
	bob := player("bob", "Bob")
	return &models.SettlementOutcome{
		MatchID:   "lobby-abc",
		GameType:  models.GameTypeChess,
		Kind:      models.OutcomeWin,
		Winner:    &alice,
		Loser:     &bob,
		Players:   [2]models.Participant{alice, bob},
		BetAmount: betAmount,
	}
}

func TestSettle_PvpWin(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	outcome := pvpWinOutcome(50)

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("AddBalance", ctx, "alice", int64(90)).Return(int64(1090), nil)

	mockRevenueRepo.On("Record", ctx, mock.MatchedBy(func(record *models.RevenueRecord) bool {
		return record.Source == models.RevenueSourceLobby &&
			record.MatchID == "lobby-abc" &&
			record.Amount == 10 &&
			record.CommissionRate == 10 &&
			len(record.Participants) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.RevenueRecord).ID = 7
	}).Return(nil)

	mockEventBus.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		e, ok := event.(events.BalanceChangeEvent)
		return ok && e.UserID == "alice" && e.ChangeAmount == 90 && e.NewBalance == 1090 &&
			e.TransactionType == models.TransactionTypeWinPayout
	})).Return()
	mockEventBus.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		e, ok := event.(events.RevenueRecordedEvent)
		return ok && e.MatchID == "lobby-abc" && e.Amount == 10
	})).Return()

	result, err := svc.Settle(ctx, outcome)
	require.NoError(t, err)

	assert.Equal(t, "lobby-abc", result.MatchID)
	assert.Equal(t, int64(10), result.LedgerAmount)
	assert.Equal(t, 10, result.CommissionRate)
	assert.Equal(t, int64(90), result.BalanceDeltas["alice"])
	assert.Equal(t, int64(7), result.RecordID)

	mockUserRepo.AssertExpectations(t)
	mockRevenueRepo.AssertExpectations(t)
	mockEventBus.AssertExpectations(t)
	mockUow.AssertExpectations(t)
}

func TestSettle_PvpDraw(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	alice := player("alice", "Alice")
	bob := player("bob", "Bob")
	outcome := &models.SettlementOutcome{
		MatchID:   "lobby-draw",
		GameType:  models.GameTypeCheckers,
		Kind:      models.OutcomeDraw,
		Players:   [2]models.Participant{alice, bob},
		BetAmount: 100,
	}

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("AddBalance", ctx, "alice", int64(95)).Return(int64(995), nil)
	mockUserRepo.On("AddBalance", ctx, "bob", int64(95)).Return(int64(1095), nil)

	mockRevenueRepo.On("Record", ctx, mock.MatchedBy(func(record *models.RevenueRecord) bool {
		return record.Amount == 10 && record.CommissionRate == 5
	})).Return(nil)

	mockEventBus.On("Publish", mock.Anything).Return()

	result, err := svc.Settle(ctx, outcome)
	require.NoError(t, err)

	assert.Equal(t, int64(95), result.BalanceDeltas["alice"])
	assert.Equal(t, int64(95), result.BalanceDeltas["bob"])
	assert.Equal(t, int64(10), result.LedgerAmount)

	mockUserRepo.AssertExpectations(t)
	mockRevenueRepo.AssertExpectations(t)
}

func TestSettle_BotVsBotSkipsTransaction(t *testing.T) {
	svc, mockFactory, _, _, _, _ := newSettlementFixture()
	ctx := context.Background()

	robo := bot("1", "Robo")
	mech := bot("2", "Mech")
	outcome := &models.SettlementOutcome{
		MatchID:   "lobby-bots",
		GameType:  models.GameTypeChess,
		Kind:      models.OutcomeWin,
		Winner:    &robo,
		Loser:     &mech,
		Players:   [2]models.Participant{robo, mech},
		BetAmount: 100,
	}

	// No factory expectations: a bot-only match must never open a transaction.
	result, err := svc.Settle(ctx, outcome)
	require.NoError(t, err)

	assert.Empty(t, result.BalanceDeltas)
	assert.Zero(t, result.LedgerAmount)
	assert.Zero(t, result.RecordID)

	mockFactory.AssertNotCalled(t, "Create")
}

func TestSettle_ZeroBetCommitsWithoutBalanceCredits(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	outcome := pvpWinOutcome(0)

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockRevenueRepo.On("Record", ctx, mock.MatchedBy(func(record *models.RevenueRecord) bool {
		return record.MatchID == "lobby-abc" &&
			record.Amount == 0 &&
			len(record.Participants) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.RevenueRecord).ID = 9
	}).Return(nil)

	mockEventBus.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		_, ok := event.(events.RevenueRecordedEvent)
		return ok
	})).Return()

	// A free match still settles and still produces its ledger entry, but no
	// zero-amount credit ever reaches the balance store.
	result, err := svc.Settle(ctx, outcome)
	require.NoError(t, err)

	assert.Empty(t, result.BalanceDeltas)
	assert.Zero(t, result.LedgerAmount)
	assert.Equal(t, int64(9), result.RecordID)

	mockUserRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	mockUow.AssertCalled(t, "Commit")
	mockRevenueRepo.AssertExpectations(t)
	mockEventBus.AssertExpectations(t)
}

func TestSettle_RecordFailureRollsBack(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	outcome := pvpWinOutcome(50)

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("AddBalance", ctx, "alice", int64(90)).Return(int64(1090), nil)
	mockEventBus.On("Publish", mock.Anything).Return()

	mockRevenueRepo.On("Record", ctx, mock.Anything).Return(errors.New("connection reset"))

	result, err := svc.Settle(ctx, outcome)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSettlementFailed)

	mockUow.AssertNotCalled(t, "Commit")
	mockUow.AssertCalled(t, "Rollback")
}

func TestSettle_DuplicateMatchSurfacedRaw(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	outcome := pvpWinOutcome(50)

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("AddBalance", ctx, "alice", int64(90)).Return(int64(1090), nil)
	mockEventBus.On("Publish", mock.Anything).Return()

	mockRevenueRepo.On("Record", ctx, mock.Anything).
		Return(errors.New("match lobby-abc: " + ErrDuplicateMatchRecord.Error()))

	// The raw error string is not enough; only a wrapped sentinel counts.
	_, err := svc.Settle(ctx, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSettlementFailed)
	assert.NotErrorIs(t, err, ErrDuplicateMatchRecord)
}

func TestSettle_DuplicateSentinelNotWrappedAsFailure(t *testing.T) {
	svc, mockFactory, mockUow, mockUserRepo, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	outcome := pvpWinOutcome(50)

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockUserRepo.On("AddBalance", ctx, "alice", int64(90)).Return(int64(1090), nil)
	mockEventBus.On("Publish", mock.Anything).Return()

	dupErr := errors.Join(ErrDuplicateMatchRecord)
	mockRevenueRepo.On("Record", ctx, mock.Anything).Return(dupErr)

	// A concurrent settlement already won: the caller sees the duplicate
	// sentinel and must not see a retryable failure.
	_, err := svc.Settle(ctx, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateMatchRecord)
	assert.NotErrorIs(t, err, ErrSettlementFailed)

	mockUow.AssertNotCalled(t, "Commit")
}

func TestSettle_BeginFailure(t *testing.T) {
	svc, mockFactory, mockUow, _, _, _ := newSettlementFixture()
	ctx := context.Background()

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(errors.New("pool exhausted"))

	_, err := svc.Settle(ctx, pvpWinOutcome(50))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSettlementFailed)
}

func TestSettle_NilOutcome(t *testing.T) {
	svc, _, _, _, _, _ := newSettlementFixture()

	_, err := svc.Settle(context.Background(), nil)
	assert.Error(t, err)
}

func TestRecordTournamentRevenue(t *testing.T) {
	svc, mockFactory, mockUow, _, mockRevenueRepo, mockEventBus := newSettlementFixture()
	ctx := context.Background()

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Commit").Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockRevenueRepo.On("Record", ctx, mock.MatchedBy(func(record *models.RevenueRecord) bool {
		return record.Source == models.RevenueSourceTournament &&
			record.TournamentRef != nil && *record.TournamentRef == "t-42" &&
			record.Amount == 160 &&
			record.MatchID == "tournament-t-42"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.RevenueRecord).ID = 11
	}).Return(nil)

	mockEventBus.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		e, ok := event.(events.RevenueRecordedEvent)
		return ok && e.Source == models.RevenueSourceTournament && e.Amount == 160
	})).Return()

	record, err := svc.RecordTournamentRevenue(ctx, "t-42", 320, 160, 8)
	require.NoError(t, err)

	assert.Equal(t, int64(11), record.ID)
	assert.Equal(t, int64(160), record.Amount)

	mockRevenueRepo.AssertExpectations(t)
	mockEventBus.AssertExpectations(t)
}

func TestRecordTournamentRevenue_Duplicate(t *testing.T) {
	svc, mockFactory, mockUow, _, mockRevenueRepo, _ := newSettlementFixture()
	ctx := context.Background()

	mockFactory.On("Create").Return(mockUow)
	mockUow.On("Begin", ctx).Return(nil)
	mockUow.On("Rollback").Return(nil)

	mockRevenueRepo.On("Record", ctx, mock.Anything).
		Return(errors.Join(ErrDuplicateMatchRecord))

	_, err := svc.RecordTournamentRevenue(ctx, "t-42", 320, 160, 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateMatchRecord)

	mockUow.AssertNotCalled(t, "Commit")
}

func TestRecordTournamentRevenue_EmptyID(t *testing.T) {
	svc, _, _, _, _, _ := newSettlementFixture()

	_, err := svc.RecordTournamentRevenue(context.Background(), "", 100, 50, 4)
	assert.Error(t, err)
}
