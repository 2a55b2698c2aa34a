package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// AccountRepository provides read access to securities accounts.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetAccount returns the account with id if it belongs to userID.
// Returns apperrors.ErrAccountNotFound otherwise.
func (r *AccountRepository) GetAccount(ctx context.Context, userID, id string) (model.SecuritiesAccount, error) {
	var (
		a      model.SecuritiesAccount
		number sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_name, broker_name, account_number
		FROM securities_account
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&a.ID, &a.UserID, &a.AccountName, &a.BrokerName, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SecuritiesAccount{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return model.SecuritiesAccount{}, fmt.Errorf("failed to query securities_account: %w", err)
	}
	a.AccountNumber = nullString(number)
	return a, nil
}
