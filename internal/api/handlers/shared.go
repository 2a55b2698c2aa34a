package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/middleware"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/response"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
)

// maxBodyBytes bounds request bodies; the largest body accepted is a
// manual price.
const maxBodyBytes = 1 << 16

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is empty")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode request body: %w", err)
	}
	return v, nil
}

// requireUser returns the authenticated user id, answering 401 when the
// router was mounted without the auth middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.RespondError(w, http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error(), "Missing user")
		return "", false
	}
	return userID, true
}
