package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BondStatus is the lifecycle state of a green bond.
type BondStatus string

const (
	BondDraft   BondStatus = "draft"
	BondActive  BondStatus = "active"
	BondClosed  BondStatus = "closed"
	BondMatured BondStatus = "matured"
)

// Valid reports whether s is a known bond status.
func (s BondStatus) Valid() bool {
	switch s {
	case BondDraft, BondActive, BondClosed, BondMatured:
		return true
	}
	return false
}

// GreenBond is a debt instrument whose proceeds fund environmental projects.
// AmountRaised never exceeds TotalAmount.
type GreenBond struct {
	ID                string
	IssuerID          string
	Name              string
	ISIN              string
	BondType          string
	FaceValue         decimal.Decimal
	CouponRate        decimal.Decimal
	Currency          string
	MinimumInvestment decimal.Decimal
	TotalAmount       decimal.Decimal
	AmountRaised      decimal.Decimal
	RiskRating        string
	Status            BondStatus
	IssueDate         time.Time
	MaturityDate      time.Time
	Description       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Remaining is how much can still be raised.
func (b *GreenBond) Remaining() decimal.Decimal {
	return b.TotalAmount.Sub(b.AmountRaised)
}
