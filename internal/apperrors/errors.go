package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAccountNotFound indicates that a securities account with the given ID
	// does not exist or belongs to another user.
	ErrAccountNotFound = errors.New("securities account not found")

	// ErrMalformedSetting indicates a stored setting value that cannot be decoded.
	ErrMalformedSetting = errors.New("malformed setting value")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidPrice indicates a manual price that is not a positive number.
	ErrInvalidPrice = errors.New("price must be greater than zero")

	// ErrInvalidPositionKind indicates an unknown transaction type for a position.
	ErrInvalidPositionKind = errors.New("transactionType must be cash, margin_financing or margin_short")

	// ErrInvalidStockCode indicates a missing or malformed stock code.
	ErrInvalidStockCode = errors.New("invalid stock code")

	// ErrUnauthenticated indicates a request without a valid user identity.
	ErrUnauthenticated = errors.New("authentication required")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	// ErrFailedToRetrieveHoldings indicates that the ledger or settings could not be loaded.
	ErrFailedToRetrieveHoldings = errors.New("failed to retrieve holdings")

	// ErrFailedToRetrieveDetails indicates that the lot detail view could not be built.
	ErrFailedToRetrieveDetails = errors.New("failed to retrieve holding details")

	// ErrFailedToSavePrice indicates that a manual price could not be stored.
	ErrFailedToSavePrice = errors.New("failed to save manual price")

	// ErrFailedToRemovePrice indicates that a manual price could not be removed.
	ErrFailedToRemovePrice = errors.New("failed to remove manual price")
)
