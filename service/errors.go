package service

import (
	"errors"
)

// ErrDuplicateMatchRecord is returned when a second ledger entry is
// attempted for a match that already settled. Callers treat it as proof
// the earlier settlement committed, not as a failure.
var ErrDuplicateMatchRecord = errors.New("revenue record already exists for match")

// ErrSettlementFailed wraps any transactional failure during settlement.
// The caller may retry: nothing was committed.
var ErrSettlementFailed = errors.New("settlement transaction failed")
