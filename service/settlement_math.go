package service

import (
	"fmt"

	"skillarena/models"
)

// SettlementVariant is the closed set of monetary outcomes a lobby match
// can produce. Each variant has its own pure payout function, so the
// commission math is testable case by case instead of hiding in nested
// conditionals.
type SettlementVariant string

const (
	VariantPvpWin           SettlementVariant = "pvp_win"
	VariantPvpDraw          SettlementVariant = "pvp_draw"
	VariantPvBotWinByPlayer SettlementVariant = "pvbot_win_by_player"
	VariantPvBotWinByBot    SettlementVariant = "pvbot_win_by_bot"
	VariantPvBotDraw        SettlementVariant = "pvbot_draw"
	VariantBotVsBotNoop     SettlementVariant = "bot_vs_bot_noop"
)

// payoutCredit is one balance credit owed to a user when a match settles.
// Stakes were debited at entry, so settlement only ever credits.
type payoutCredit struct {
	UserID          string
	Username        string
	Amount          int64
	TransactionType models.TransactionType
}

// payoutPlan is the full monetary consequence of one finished match:
// balance credits, the ledger amount (positive revenue or negative payout),
// and the commission rate to record.
type payoutPlan struct {
	Variant        SettlementVariant
	Credits        []payoutCredit
	LedgerAmount   int64
	CommissionRate int
	Description    string
	Participants   []models.RevenueParticipant
}

// classifyOutcome maps a settlement outcome onto its variant.
func classifyOutcome(o *models.SettlementOutcome) (SettlementVariant, error) {
	botCount := 0
	for _, p := range o.Players {
		if p.IsBot {
			botCount++
		}
	}

	switch botCount {
	case 2:
		return VariantBotVsBotNoop, nil
	case 0:
		if o.Kind == models.OutcomeDraw {
			return VariantPvpDraw, nil
		}
		if o.Winner == nil {
			return "", fmt.Errorf("win outcome for match %s has no winner", o.MatchID)
		}
		return VariantPvpWin, nil
	case 1:
		if o.Kind == models.OutcomeDraw {
			return VariantPvBotDraw, nil
		}
		if o.Winner == nil {
			return "", fmt.Errorf("win outcome for match %s has no winner", o.MatchID)
		}
		if o.Winner.IsBot {
			return VariantPvBotWinByBot, nil
		}
		return VariantPvBotWinByPlayer, nil
	}
	return "", fmt.Errorf("match %s has %d bot participants", o.MatchID, botCount)
}

// buildPayoutPlan computes the bit-exact payout for an outcome. All stakes
// are assumed pre-debited at match entry; credits plus the ledger amount
// conserve the pot by construction.
func buildPayoutPlan(o *models.SettlementOutcome, winPercent, drawPercent int) (*payoutPlan, error) {
	variant, err := classifyOutcome(o)
	if err != nil {
		return nil, err
	}
	if o.BetAmount < 0 {
		return nil, fmt.Errorf("match %s has negative bet amount %d", o.MatchID, o.BetAmount)
	}

	bet := o.BetAmount
	plan := &payoutPlan{Variant: variant}

	switch variant {
	case VariantBotVsBotNoop:
		// No real participant: no money ever moved, nothing to settle.
		return plan, nil

	case VariantPvpWin:
		pot := 2 * bet
		commission := pot * int64(winPercent) / 100
		plan.Credits = []payoutCredit{{
			UserID:          o.Winner.ID,
			Username:        o.Winner.Username,
			Amount:          pot - commission,
			TransactionType: models.TransactionTypeWinPayout,
		}}
		plan.LedgerAmount = commission
		plan.CommissionRate = winPercent
		plan.Description = fmt.Sprintf("%s win: %s beat %s", o.GameType, o.Winner.Username, o.Loser.Username)
		plan.Participants = winLoseParticipants(o)

	case VariantPvpDraw:
		perPlayerCommission := bet * int64(drawPercent) / 100
		refund := bet - perPlayerCommission
		for _, p := range o.Players {
			plan.Credits = append(plan.Credits, payoutCredit{
				UserID:          p.ID,
				Username:        p.Username,
				Amount:          refund,
				TransactionType: models.TransactionTypeDrawRefund,
			})
		}
		plan.LedgerAmount = 2 * perPlayerCommission
		plan.CommissionRate = drawPercent
		plan.Description = fmt.Sprintf("%s draw: %s vs %s", o.GameType, o.Players[0].Username, o.Players[1].Username)
		plan.Participants = drawParticipants(o)

	case VariantPvBotWinByPlayer:
		// The bot's stake was never collected from a real wallet, so the
		// platform funds the win: stake return plus the opponent-equivalent
		// amount, no commission withheld.
		plan.Credits = []payoutCredit{{
			UserID:          o.Winner.ID,
			Username:        o.Winner.Username,
			Amount:          2 * bet,
			TransactionType: models.TransactionTypeBotMatchWin,
		}}
		plan.LedgerAmount = -bet
		plan.Description = fmt.Sprintf("%s win vs bot: %s beat %s", o.GameType, o.Winner.Username, o.Loser.Username)
		plan.Participants = winLoseParticipants(o)

	case VariantPvBotWinByBot:
		// The player's forfeited stake is pure platform revenue.
		plan.LedgerAmount = bet
		plan.Description = fmt.Sprintf("%s loss vs bot: %s beat %s", o.GameType, o.Winner.Username, o.Loser.Username)
		plan.Participants = winLoseParticipants(o)

	case VariantPvBotDraw:
		perPlayerCommission := bet * int64(drawPercent) / 100
		for _, p := range o.Players {
			if p.IsBot {
				continue
			}
			plan.Credits = append(plan.Credits, payoutCredit{
				UserID:          p.ID,
				Username:        p.Username,
				Amount:          bet - perPlayerCommission,
				TransactionType: models.TransactionTypeDrawRefund,
			})
		}
		plan.LedgerAmount = perPlayerCommission
		plan.CommissionRate = drawPercent
		plan.Description = fmt.Sprintf("%s draw vs bot: %s vs %s", o.GameType, o.Players[0].Username, o.Players[1].Username)
		plan.Participants = drawParticipants(o)
	}

	return plan, nil
}

// winLoseParticipants records both sides of a decisive match, bots included,
// so revenue queries never have to branch on bot-ness.
func winLoseParticipants(o *models.SettlementOutcome) []models.RevenueParticipant {
	participants := make([]models.RevenueParticipant, 0, 2)
	for _, p := range o.Players {
		result := models.ParticipantResultLose
		if o.Winner != nil && p.ID == o.Winner.ID {
			result = models.ParticipantResultWin
		}
		participants = append(participants, models.RevenueParticipant{
			ParticipantID: p.ID,
			Username:      p.Username,
			BetAmount:     o.BetAmount,
			Result:        result,
			IsBot:         p.IsBot,
		})
	}
	return participants
}

func drawParticipants(o *models.SettlementOutcome) []models.RevenueParticipant {
	participants := make([]models.RevenueParticipant, 0, 2)
	for _, p := range o.Players {
		participants = append(participants, models.RevenueParticipant{
			ParticipantID: p.ID,
			Username:      p.Username,
			BetAmount:     o.BetAmount,
			Result:        models.ParticipantResultDraw,
			IsBot:         p.IsBot,
		})
	}
	return participants
}
