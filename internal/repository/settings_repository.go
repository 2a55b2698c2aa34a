package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/rates"
)

// SettingsRepository provides access to per-user settings stored as
// key/value rows in system_setting.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetFeeSettings returns the user's raw fee settings. A user without
// stored settings gets an empty Settings value, which resolves to the
// defaults. An undecodable value is reported as apperrors.ErrMalformedSetting.
func (r *SettingsRepository) GetFeeSettings(ctx context.Context, userID string) (rates.Settings, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT setting_value FROM system_setting
		WHERE user_id = ? AND setting_key = ?
	`, userID, model.SettingKeyFeeSettings).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && (!value.Valid || value.String == "")) {
		return rates.Settings{}, nil
	}
	if err != nil {
		return rates.Settings{}, fmt.Errorf("failed to query system_setting: %w", err)
	}

	var s rates.Settings
	if err := json.Unmarshal([]byte(value.String), &s); err != nil {
		return rates.Settings{}, fmt.Errorf("%w: %s: %v", apperrors.ErrMalformedSetting, model.SettingKeyFeeSettings, err)
	}
	return s, nil
}

// GetManualPrices returns the user's manual price overrides keyed by
// setting key (see model.ManualPriceKey). Values that cannot be read as
// a positive price are skipped.
func (r *SettingsRepository) GetManualPrices(ctx context.Context, userID string) (map[string]model.ManualPrice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT setting_key, setting_value, updated_at FROM system_setting
		WHERE user_id = ? AND setting_key LIKE ? || '%'
	`, userID, model.SettingKeyManualPricePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query system_setting: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]model.ManualPrice)
	for rows.Next() {
		var (
			key       string
			value     sql.NullString
			updatedAt string
		)
		if err := rows.Scan(&key, &value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan system_setting results: %w", err)
		}
		mp, ok := decodeManualPrice(value.String)
		if !ok {
			continue
		}
		if mp.UpdatedAt.IsZero() {
			mp.UpdatedAt, _ = ParseTime(updatedAt)
		}
		prices[key] = mp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating system_setting: %w", err)
	}
	return prices, nil
}

// decodeManualPrice reads a stored manual price: a JSON object, or the
// bare decimal string written by earlier versions.
func decodeManualPrice(value string) (model.ManualPrice, bool) {
	value = strings.TrimSpace(value)
	var mp model.ManualPrice
	if strings.HasPrefix(value, "{") {
		if err := json.Unmarshal([]byte(value), &mp); err != nil {
			return model.ManualPrice{}, false
		}
	} else {
		p, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return model.ManualPrice{}, false
		}
		mp.Price = p
	}
	return mp, mp.Price > 0
}

// UpsertManualPrice stores or replaces a manual price.
func (r *SettingsRepository) UpsertManualPrice(ctx context.Context, userID string, mp model.ManualPrice) error {
	value, err := json.Marshal(mp)
	if err != nil {
		return fmt.Errorf("failed to encode manual price: %w", err)
	}
	key := model.ManualPriceKey(mp.SecuritiesAccountID, mp.StockCode, mp.TransactionType)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO system_setting (id, user_id, setting_key, setting_value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, setting_key)
		DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at
	`, uuid.New().String(), userID, key, string(value), mp.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert manual price: %w", err)
	}
	return nil
}

// DeleteManualPrice removes a manual price. Deleting an absent price is
// not an error.
func (r *SettingsRepository) DeleteManualPrice(ctx context.Context, userID, key string) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM system_setting WHERE user_id = ? AND setting_key = ?
	`, userID, key); err != nil {
		return fmt.Errorf("failed to delete manual price: %w", err)
	}
	return nil
}
