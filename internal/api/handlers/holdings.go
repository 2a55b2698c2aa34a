package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/request"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/response"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/service"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/validation"
)

// HoldingHandler handles HTTP requests for holdings endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// valuation to the holdingService.
type HoldingHandler struct {
	holdingService *service.HoldingService
}

// NewHoldingHandler creates a new HoldingHandler with the provided service dependency.
func NewHoldingHandler(holdingService *service.HoldingService) *HoldingHandler {
	return &HoldingHandler{
		holdingService: holdingService,
	}
}

// LotDetailsResponse wraps the lot-detail list.
type LotDetailsResponse struct {
	Data []model.LotDetail `json:"data"`
}

// Holdings handles GET requests for the caller's valued open positions.
//
// Endpoint: GET /api/holdings
// Query Parameters:
//   - securitiesAccountId: account UUID, or "null" for unassigned transactions (optional)
//   - stockCode: substring match on the instrument code (optional)
//   - refresh: evict cached quotes for the codes in scope (optional)
//
// Response: 200 OK with model.HoldingsResult
// Error: 400 Bad Request if a query parameter is malformed
// Error: 500 Internal Server Error if the ledger or settings cannot be loaded
func (h *HoldingHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters, err := request.ParseHoldingsFilters(q.Get("securitiesAccountId"), q.Get("stockCode"), q.Get("refresh"), "")
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	result, err := h.holdingService.GetHoldings(r.Context(), userID, service.HoldingsQuery{
		SecuritiesAccountID: filters.SecuritiesAccountID,
		StockCode:           filters.StockCode,
		Refresh:             filters.Refresh,
	})
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHoldings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Details handles GET requests for the open remainder of each opening
// transaction. Only domestic lots are listed.
//
// Endpoint: GET /api/holdings/details
// Query Parameters:
//   - securitiesAccountId, stockCode: as for Holdings
//   - include_margin: also list margin-financing buys and margin-short opens (optional)
//
// Response: 200 OK with LotDetailsResponse
// Error: 400 Bad Request if a query parameter is malformed
// Error: 500 Internal Server Error if the ledger or settings cannot be loaded
func (h *HoldingHandler) Details(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters, err := request.ParseHoldingsFilters(q.Get("securitiesAccountId"), q.Get("stockCode"), "", q.Get("include_margin"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	details, err := h.holdingService.GetLotDetails(r.Context(), userID, service.DetailsQuery{
		SecuritiesAccountID: filters.SecuritiesAccountID,
		StockCode:           filters.StockCode,
		IncludeMargin:       filters.IncludeMargin,
	})
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveDetails.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, LotDetailsResponse{Data: details})
}

// SetPrice handles PUT requests storing a manual price for one position.
// The manual price overrides quotes until it is removed.
//
// Endpoint: PUT /api/holdings/{accountId}/{stockCode}/price
// Request Body: request.ManualPriceRequest (price, transactionType)
// Response: 200 OK with the stored model.ManualPrice
// Error: 400 Bad Request if the path (validated by middleware) or body is invalid
// Error: 404 Not Found if the securities account does not belong to the caller
// Error: 500 Internal Server Error if the price cannot be stored
func (h *HoldingHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	accountID, stockCode := positionParams(r)

	req, err := parseJSON[request.ManualPriceRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateManualPrice(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	stored, err := h.holdingService.SetManualPrice(r.Context(), userID, model.ManualPrice{
		SecuritiesAccountID: accountID,
		StockCode:           stockCode,
		TransactionType:     strings.TrimSpace(req.TransactionType),
		Price:               *req.Price,
	})
	if err != nil {
		respondManualPriceError(w, err, apperrors.ErrFailedToSavePrice)
		return
	}

	response.RespondJSON(w, http.StatusOK, stored)
}

// ClearPrice handles DELETE requests removing a manual price. Removing a
// price that does not exist succeeds.
//
// Endpoint: DELETE /api/holdings/{accountId}/{stockCode}/price
// Query Parameters:
//   - transactionType: cash (default), margin_financing or margin_short
//
// Response: 204 No Content
// Error: 400 Bad Request if the path (validated by middleware) or transactionType is invalid
// Error: 404 Not Found if the securities account does not belong to the caller
// Error: 500 Internal Server Error if the price cannot be removed
func (h *HoldingHandler) ClearPrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	accountID, stockCode := positionParams(r)

	kind := strings.TrimSpace(r.URL.Query().Get("transactionType"))
	if err := validation.ValidatePositionKind(kind); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.holdingService.ClearManualPrice(r.Context(), userID, accountID, stockCode, kind); err != nil {
		respondManualPriceError(w, err, apperrors.ErrFailedToRemovePrice)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// positionParams reads the {accountId} and {stockCode} path parameters,
// already validated by middleware.ValidatePositionMiddleware.
func positionParams(r *http.Request) (string, string) {
	return chi.URLParam(r, "accountId"), chi.URLParam(r, "stockCode")
}

func respondManualPriceError(w http.ResponseWriter, err error, fallback error) {
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrAccountNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidPrice),
		errors.Is(err, apperrors.ErrInvalidPositionKind),
		errors.Is(err, apperrors.ErrInvalidStockCode):
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback.Error(), err.Error())
	}
}
