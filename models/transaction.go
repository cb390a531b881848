package models

// TransactionType classifies a balance change for event consumers and
// reconciliation tooling.
type TransactionType string

const (
	TransactionTypeWinPayout    TransactionType = "win_payout"
	TransactionTypeDrawRefund   TransactionType = "draw_refund"
	TransactionTypeBotMatchWin  TransactionType = "bot_match_win"
	TransactionTypeEntryFee     TransactionType = "entry_fee"
	TransactionTypeInitial      TransactionType = "initial"
)
