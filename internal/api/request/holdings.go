package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ManualPriceRequest is the body of PUT /api/holdings/{accountId}/{stockCode}/price.
type ManualPriceRequest struct {
	Price           *float64 `json:"price"`
	TransactionType string   `json:"transactionType"`
}

// HoldingsFilters holds the parsed query parameters shared by the
// holdings and lot-detail endpoints.
type HoldingsFilters struct {
	SecuritiesAccountID string
	StockCode           string
	Refresh             bool
	IncludeMargin       bool
}

// ParseHoldingsFilters extracts and validates holdings filters from query
// parameters. All parameters are optional.
//
// Validation rules:
//   - securitiesAccountId: "null" (unassigned transactions) or a UUID
//   - stockCode: trimmed; matched as a substring by the repository
//   - refresh/include_margin: strconv.ParseBool values, default false
//
// Returns an error if any parameter fails validation.
func ParseHoldingsFilters(accountParam, stockCodeParam, refreshParam, includeMarginParam string) (*HoldingsFilters, error) {
	filters := &HoldingsFilters{
		StockCode: strings.TrimSpace(stockCodeParam),
	}

	if accountParam = strings.TrimSpace(accountParam); accountParam != "" {
		if accountParam != "null" {
			if _, err := uuid.Parse(accountParam); err != nil {
				return nil, fmt.Errorf("invalid securitiesAccountId: %s", accountParam)
			}
		}
		filters.SecuritiesAccountID = accountParam
	}

	refresh, err := parseFlag(refreshParam)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh: %w", err)
	}
	filters.Refresh = refresh

	includeMargin, err := parseFlag(includeMarginParam)
	if err != nil {
		return nil, fmt.Errorf("invalid include_margin: %w", err)
	}
	filters.IncludeMargin = includeMargin

	return filters, nil
}

// parseFlag reads an optional boolean query value. Empty means false.
func parseFlag(str string) (bool, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("cannot parse %q as a boolean", str)
	}
	return v, nil
}
