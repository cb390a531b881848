package testutil

import (
	"time"

	"skillarena/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(userID, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        userID,
		Username:  username,
		Balance:   1000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestRevenueRecord creates a lobby revenue record for a decided match
func CreateTestRevenueRecord(matchID string, amount int64) *models.RevenueRecord {
	return &models.RevenueRecord{
		Source:         models.RevenueSourceLobby,
		GameType:       models.GameTypeChess,
		Amount:         amount,
		CommissionRate: 10,
		Description:    "chess win: Alice beat Bob",
		MatchID:        matchID,
		Participants: []models.RevenueParticipant{
			{
				ParticipantID: "alice",
				Username:      "Alice",
				BetAmount:     50,
				Result:        models.ParticipantResultWin,
			},
			{
				ParticipantID: "bob",
				Username:      "Bob",
				BetAmount:     50,
				Result:        models.ParticipantResultLose,
			},
		},
	}
}

// CreateTestBotRevenueRecord creates a lobby record for a match against a bot
func CreateTestBotRevenueRecord(matchID string, amount int64) *models.RevenueRecord {
	record := CreateTestRevenueRecord(matchID, amount)
	record.Description = "chess loss vs bot: Robo beat Alice"
	record.Participants = []models.RevenueParticipant{
		{
			ParticipantID: "alice",
			Username:      "Alice",
			BetAmount:     50,
			Result:        models.ParticipantResultLose,
		},
		{
			ParticipantID: "bot-7",
			Username:      "Robo",
			BetAmount:     50,
			Result:        models.ParticipantResultWin,
			IsBot:         true,
		},
	}
	return record
}

// CreateTestTournamentRecord creates a tournament-level revenue record
func CreateTestTournamentRecord(tournamentID string, amount int64) *models.RevenueRecord {
	ref := tournamentID
	return &models.RevenueRecord{
		Source:        models.RevenueSourceTournament,
		TournamentRef: &ref,
		Amount:        amount,
		Description:   "Tournament " + tournamentID + " completed",
		MatchID:       "tournament-" + tournamentID,
	}
}
