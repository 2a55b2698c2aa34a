package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/repository"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/service"
)

// Taipei is the market timezone used throughout the tests. A fixed zone
// keeps tests independent of the host's tzdata.
var Taipei = time.FixedZone("CST", 8*60*60)

// TradingNow is Tuesday 2025-06-24 10:00 in Taipei, inside the session.
var TradingNow = time.Date(2025, 6, 24, 10, 0, 0, 0, Taipei)

// NewTestHoldingService wires a HoldingService against db with the given
// oracle and a fake clock frozen at TradingNow. oracle may be nil.
func NewTestHoldingService(t *testing.T, db *sql.DB, oracle service.PriceOracle) *service.HoldingService {
	t.Helper()
	return NewTestHoldingServiceAt(t, db, oracle, NewFakeClock(TradingNow))
}

// NewTestHoldingServiceAt is NewTestHoldingService with a caller-supplied clock.
func NewTestHoldingServiceAt(t *testing.T, db *sql.DB, oracle service.PriceOracle, clock *FakeClock) *service.HoldingService {
	t.Helper()

	return service.NewHoldingService(
		repository.NewTransactionRepository(db),
		repository.NewSettingsRepository(db),
		repository.NewAccountRepository(db),
		oracle,
		clock,
		Taipei,
		nil,
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, map[string]bool{"shared_cache": false})
}

// MakeID generates a unique ID for testing.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}
