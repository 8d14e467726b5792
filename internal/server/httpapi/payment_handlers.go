package httpapi

import (
	"net/http"
	"strings"

	"github.com/ecoquad/greenbond/internal/server/services"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Amount   decimal.NullDecimal `json:"amount"`
	Currency string              `json:"currency"`
	Receipt  string              `json:"receipt"`
	BondID   string              `json:"bondId"`
}

type verifyPaymentRequest struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig exposes non-secret settings for local debugging.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"razorpay_key_id": s.payments.KeyID(),
		"port":            s.port,
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !req.Amount.Valid {
		s.writeError(w, r, requiredField("amount"))
		return
	}

	in := services.CreateOrderInput{
		Amount:         req.Amount.Decimal,
		Currency:       req.Currency,
		Receipt:        req.Receipt,
		BondID:         req.BondID,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	}
	if claims := claimsFrom(r.Context()); claims != nil {
		in.UserID = claims.UserID()
	}

	res, err := s.payments.CreateOrder(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order": newOrderView(res.Order),
		"key":   res.KeyID,
	})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.payments.VerifyPayment(r.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": res.Status, "order_id": res.OrderID})
}
