package model

import "time"

// Setting keys stored per user in system_setting.
const (
	SettingKeyFeeSettings       = "feeSettings"
	SettingKeyManualPricePrefix = "manual_price_"
)

// ManualPrice is a user-entered price for one position group. It takes
// precedence over any oracle quote until removed.
type ManualPrice struct {
	SecuritiesAccountID string    `json:"securitiesAccountId"`
	StockCode           string    `json:"stockCode"`
	TransactionType     string    `json:"transactionType"`
	Price               float64   `json:"price"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ManualPriceKey builds the setting key for a manual price. accountID is
// "null" for positions without a securities account.
func ManualPriceKey(accountID, stockCode, kind string) string {
	return SettingKeyManualPricePrefix + accountID + "_" + stockCode + "_" + kind
}

// SecuritiesAccount is a brokerage account owned by a user.
type SecuritiesAccount struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	AccountName   string `json:"accountName"`
	BrokerName    string `json:"brokerName"`
	AccountNumber string `json:"accountNumber,omitempty"`
}
