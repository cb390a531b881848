package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"skillarena/models"
	"skillarena/repository/testutil"
	"skillarena/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRevenueRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful insert", func(t *testing.T) {
		record := testutil.CreateTestRevenueRecord("lobby-1", 10)
		err := repo.Record(ctx, record)
		require.NoError(t, err)

		assert.NotZero(t, record.ID)
		assert.False(t, record.CreatedAt.IsZero())
	})

	t.Run("duplicate match id refused", func(t *testing.T) {
		record := testutil.CreateTestRevenueRecord("lobby-dup", 10)
		require.NoError(t, repo.Record(ctx, record))

		second := testutil.CreateTestRevenueRecord("lobby-dup", 10)
		err := repo.Record(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrDuplicateMatchRecord)

		// Exactly one entry survives the race
		stored, err := repo.GetByMatchID(ctx, "lobby-dup")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, record.ID, stored.ID)
	})

	t.Run("negative amount stored as-is", func(t *testing.T) {
		// A player beating a bot is a net platform cost
		record := testutil.CreateTestBotRevenueRecord("lobby-botwin", -30)
		require.NoError(t, repo.Record(ctx, record))

		stored, err := repo.GetByMatchID(ctx, "lobby-botwin")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(-30), stored.Amount)
	})

	t.Run("nil participants stored as empty list", func(t *testing.T) {
		record := testutil.CreateTestTournamentRecord("t-1", 160)
		require.NoError(t, repo.Record(ctx, record))

		stored, err := repo.GetByMatchID(ctx, "tournament-t-1")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Empty(t, stored.Participants)
		require.NotNil(t, stored.TournamentRef)
		assert.Equal(t, "t-1", *stored.TournamentRef)
	})
}

func TestRevenueRepository_GetByMatchID(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRevenueRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		record, err := repo.GetByMatchID(ctx, "lobby-missing")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("found with participants", func(t *testing.T) {
		original := testutil.CreateTestBotRevenueRecord("lobby-2", 50)
		require.NoError(t, repo.Record(ctx, original))

		record, err := repo.GetByMatchID(ctx, "lobby-2")
		require.NoError(t, err)
		require.NotNil(t, record)

		require.Len(t, record.Participants, 2)
		assert.Equal(t, "alice", record.Participants[0].ParticipantID)
		assert.False(t, record.Participants[0].IsBot)
		assert.True(t, record.Participants[1].IsBot)
		assert.Equal(t, models.ParticipantResultWin, record.Participants[1].Result)
	})
}

func TestRevenueRepository_ListAndStats(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRevenueRepository(testDB.DB)
	ctx := context.Background()

	// Three lobby records and one tournament record
	for i, amount := range []int64{10, 20, -30} {
		record := testutil.CreateTestRevenueRecord(fmt.Sprintf("lobby-%d", i), amount)
		require.NoError(t, repo.Record(ctx, record))
	}
	require.NoError(t, repo.Record(ctx, testutil.CreateTestTournamentRecord("t-9", 160)))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	t.Run("stats by source", func(t *testing.T) {
		stats, err := repo.GetStats(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(160), stats.TotalRevenue)
		assert.Equal(t, int64(0), stats.LobbyRevenue)
		assert.Equal(t, int64(160), stats.TournamentRevenue)
		assert.Equal(t, int64(4), stats.RecordCount)
	})

	t.Run("list all newest first", func(t *testing.T) {
		records, total, err := repo.List(ctx, models.RevenueFilter{}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, records, 4)
		for i := 1; i < len(records); i++ {
			assert.False(t, records[i-1].CreatedAt.Before(records[i].CreatedAt))
		}
	})

	t.Run("filter by source", func(t *testing.T) {
		source := models.RevenueSourceTournament
		records, total, err := repo.List(ctx, models.RevenueFilter{Source: &source}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, records, 1)
		assert.Equal(t, models.RevenueSourceTournament, records[0].Source)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, total, err := repo.List(ctx, models.RevenueFilter{}, 3, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, page1, 3)

		page2, _, err := repo.List(ctx, models.RevenueFilter{}, 3, 3)
		require.NoError(t, err)
		assert.Len(t, page2, 1)
	})

	t.Run("date window excludes everything", func(t *testing.T) {
		past := time.Now().Add(-48 * time.Hour)
		stats, err := repo.GetStats(ctx, past, past.Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, stats.TotalRevenue)
		assert.Zero(t, stats.RecordCount)
	})
}

func TestRevenueRepository_GetDailyRevenue(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRevenueRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, testutil.CreateTestRevenueRecord("lobby-1", 10)))
	require.NoError(t, repo.Record(ctx, testutil.CreateTestRevenueRecord("lobby-2", 20)))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	points, err := repo.GetDailyRevenue(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(30), points[0].Revenue)
	assert.Equal(t, int64(2), points[0].RecordCount)
}

func TestRevenueRepository_GetTopPlayers(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRevenueRepository(testDB.DB)
	ctx := context.Background()

	// Two pvp matches involving alice, one involving a bot.
	// Half of each lobby amount is attributed to each real participant.
	require.NoError(t, repo.Record(ctx, testutil.CreateTestRevenueRecord("lobby-1", 10)))
	require.NoError(t, repo.Record(ctx, testutil.CreateTestRevenueRecord("lobby-2", 20)))
	require.NoError(t, repo.Record(ctx, testutil.CreateTestBotRevenueRecord("lobby-3", 50)))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	entries, err := repo.GetTopPlayers(ctx, from, to, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// alice: 10/2 + 20/2 + 50/2 = 40 over three games
	assert.Equal(t, "alice", entries[0].ParticipantID)
	assert.Equal(t, int64(40), entries[0].AttributedRevenue)
	assert.Equal(t, int64(3), entries[0].GamesPlayed)

	// bob: 10/2 + 20/2 = 15; the bot is excluded entirely
	assert.Equal(t, "bob", entries[1].ParticipantID)
	assert.Equal(t, int64(15), entries[1].AttributedRevenue)
	assert.Equal(t, int64(2), entries[1].GamesPlayed)
}
