package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus tracks whether the payment for an investment settled.
type InvestmentStatus string

const (
	InvestmentPending   InvestmentStatus = "pending"
	InvestmentConfirmed InvestmentStatus = "confirmed"
	InvestmentFailed    InvestmentStatus = "failed"
)

// Investment is an investor's holding in a green bond.
type Investment struct {
	ID             string
	InvestorID     string
	BondID         string
	Amount         decimal.Decimal
	PurchasePrice  decimal.Decimal
	PurchaseDate   time.Time
	Status         InvestmentStatus
	ExpectedReturn decimal.Decimal
	MaturityValue  decimal.Decimal
	Fees           decimal.Decimal
	GatewayOrderID string
	TransactionID  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
