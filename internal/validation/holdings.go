package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/request"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// ValidPositionKind contains the allowed transactionType values for a
// manual price. An empty value means cash.
var ValidPositionKind = map[string]bool{
	model.KindCash:            true,
	model.KindMarginFinancing: true,
	model.KindMarginShort:     true,
}

// ValidateManualPrice validates a manual price request.
//
// Required fields:
//   - price: Must be present, finite and greater than zero
//   - transactionType: Optional; one of cash, margin_financing, margin_short
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateManualPrice(req request.ManualPriceRequest) error {
	errors := make(map[string]string)

	switch {
	case req.Price == nil:
		errors["price"] = "price is required"
	case math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0):
		errors["price"] = "price must be a number"
	case *req.Price <= 0:
		errors["price"] = "price must be positive"
	}

	if kind := strings.TrimSpace(req.TransactionType); kind != "" && !ValidPositionKind[kind] {
		errors["transactionType"] = fmt.Sprintf("invalid type: %s", kind)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidatePositionKind validates the transactionType query parameter of
// a manual price removal. An empty value means cash.
func ValidatePositionKind(kind string) error {
	if kind == "" || ValidPositionKind[kind] {
		return nil
	}
	return &Error{Fields: map[string]string{"transactionType": fmt.Sprintf("invalid type: %s", kind)}}
}
