// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// UserType classifies what a user does on the platform.
type UserType string

const (
	UserTypeRetailInvestor        UserType = "retail_investor"
	UserTypeInstitutionalInvestor UserType = "institutional_investor"
	UserTypeBondIssuer            UserType = "bond_issuer"
	UserTypeProjectManager        UserType = "project_manager"
	UserTypeRegulator             UserType = "regulator"

	// legacyUserTypeIssuer is what older clients send for bond issuers.
	legacyUserTypeIssuer = "issuer"
)

// ParseUserType normalises s and reports whether it names a known type.
func ParseUserType(s string) (UserType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == legacyUserTypeIssuer {
		return UserTypeBondIssuer, true
	}
	switch t := UserType(s); t {
	case UserTypeRetailInvestor, UserTypeInstitutionalInvestor, UserTypeBondIssuer,
		UserTypeProjectManager, UserTypeRegulator:
		return t, true
	}
	return "", false
}

// KYCStatus is the know-your-customer state of a user.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// Valid reports whether s is a known KYC status.
func (s KYCStatus) Valid() bool {
	switch s {
	case KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// User is a registered account. PasswordHash is a bcrypt hash and must never
// be serialized; handlers render users through a dedicated view.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	UserType     UserType
	CompanyName  *string
	KYCStatus    KYCStatus
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail returns the canonical form under which emails are stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
