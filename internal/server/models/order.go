package models

import "time"

// OrderStatus is the settlement state of a gateway order.
type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
)

// PaymentOrder mirrors an order created at the payment gateway. Amount is in
// minor currency units (paise for INR).
type PaymentOrder struct {
	ID             string
	GatewayOrderID string
	AmountMinor    int64
	Currency       string
	Receipt        string
	IdempotencyKey *string
	UserID         *string
	BondID         *string
	Status         OrderStatus
	PaymentID      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
