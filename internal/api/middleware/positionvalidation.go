// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/response"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/validation"
)

// ValidatePositionMiddleware validates the {accountId} and {stockCode} URL
// parameters that identify a position. accountId is a UUID or "null" for
// transactions without a securities account.
// Returns 400 Bad Request if either parameter is missing or malformed.
//
// Example usage in router:
//
//	r.Route("/{accountId}/{stockCode}", func(r chi.Router) {
//	    r.Use(middleware.ValidatePositionMiddleware)
//	    r.Put("/price", handler.SetPrice)
//	})
func ValidatePositionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountId")
		if accountID == "" {
			response.RespondError(w, http.StatusBadRequest, "securities account ID is required", "")
			return
		}
		if err := validation.ValidateAccountID(accountID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid securities account ID", err.Error())
			return
		}

		if err := validation.ValidateStockCode(chi.URLParam(r, "stockCode")); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid stock code", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
