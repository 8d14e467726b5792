package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ecoquad/greenbond/internal/common"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON object into dst. An empty body leaves dst zero.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return common.NewValidationError("Invalid JSON body")
	}
	return nil
}

// writeError maps err to a status code and JSON body. Server errors are
// logged and answered with an opaque message plus the correlation id.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *common.ValidationError
		authErr    *common.AuthError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Message})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request"})
	case errors.Is(err, common.ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Authorization token is required"})
	case errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Token has expired"})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenRevoked):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid token"})
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Refresh token has expired"})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: authErr.Message})
	case errors.Is(err, common.ErrorInactive):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Account is deactivated"})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.Is(err, common.ErrGatewayAuth):
		s.logger.Error(r.Context(), "payment gateway rejected credentials", "error", err, "correlation_id", correlationID(r.Context()))
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Error:   "authentication_failed",
			Message: "Razorpay authentication failed. Check RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET in your .env and restart the server.",
		})
	case errors.Is(err, common.ErrVerification):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "verification failed"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	case errors.Is(err, common.ErrIdempotencyInFlight):
		writeJSON(w, http.StatusConflict, errorBody{Error: "A request with this Idempotency-Key is already in progress"})
	case errors.Is(err, common.ErrFundingExceeded):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Investment exceeds the remaining bond amount"})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Resource already exists"})
	default:
		id := correlationID(r.Context())
		s.logger.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path, "correlation_id", id)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", CorrelationID: id})
	}
}

// writeUserError is writeError with the messages the auth endpoints use.
func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "User not found"})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: "User with this email already exists"})
	default:
		s.writeError(w, r, err)
	}
}

func requiredField(name string) error {
	return common.NewValidationError(fmt.Sprintf("%s is required", name))
}
