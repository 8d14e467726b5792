package httpapi

import (
	"time"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/services"
	"github.com/shopspring/decimal"
)

type preferencesView struct {
	Currency      string `json:"currency"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

type userView struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	UserType    string          `json:"userType"`
	CompanyName *string         `json:"companyName"`
	KYCStatus   string          `json:"kycStatus"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
	Preferences preferencesView `json:"preferences"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		UserType:    string(u.UserType),
		CompanyName: u.CompanyName,
		KYCStatus:   string(u.KYCStatus),
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.UTC().Format(time.RFC3339),
		Preferences: preferencesView{Currency: common.DefaultCurrency, Language: "en", Notifications: true},
	}
}

type bondView struct {
	ID                string          `json:"id"`
	IssuerID          string          `json:"issuerId"`
	Name              string          `json:"name"`
	ISIN              string          `json:"isin"`
	BondType          string          `json:"bondType"`
	FaceValue         decimal.Decimal `json:"faceValue"`
	CouponRate        decimal.Decimal `json:"couponRate"`
	Currency          string          `json:"currency"`
	MinimumInvestment decimal.Decimal `json:"minimumInvestment"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	AmountRaised      decimal.Decimal `json:"amountRaised"`
	Remaining         decimal.Decimal `json:"remainingAmount"`
	RiskRating        string          `json:"riskRating"`
	Status            string          `json:"status"`
	IssueDate         string          `json:"issueDate"`
	MaturityDate      string          `json:"maturityDate"`
	Description       string          `json:"description"`
	CreatedAt         string          `json:"createdAt"`
}

func newBondView(b *models.GreenBond) bondView {
	return bondView{
		ID:                b.ID,
		IssuerID:          b.IssuerID,
		Name:              b.Name,
		ISIN:              b.ISIN,
		BondType:          b.BondType,
		FaceValue:         b.FaceValue,
		CouponRate:        b.CouponRate,
		Currency:          b.Currency,
		MinimumInvestment: b.MinimumInvestment,
		TotalAmount:       b.TotalAmount,
		AmountRaised:      b.AmountRaised,
		Remaining:         b.Remaining(),
		RiskRating:        b.RiskRating,
		Status:            string(b.Status),
		IssueDate:         b.IssueDate.Format(time.DateOnly),
		MaturityDate:      b.MaturityDate.Format(time.DateOnly),
		Description:       b.Description,
		CreatedAt:         b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type projectView struct {
	ID                     string          `json:"id"`
	BondID                 string          `json:"bondId"`
	Name                   string          `json:"name"`
	ProjectType            string          `json:"projectType"`
	Description            string          `json:"description"`
	Country                string          `json:"country"`
	Region                 string          `json:"region"`
	StartDate              *string         `json:"startDate"`
	ExpectedCompletionDate *string         `json:"expectedCompletionDate"`
	TotalBudget            decimal.Decimal `json:"totalBudget"`
	AllocatedFunds         decimal.Decimal `json:"allocatedFunds"`
	SpentFunds             decimal.Decimal `json:"spentFunds"`
	Status                 string          `json:"status"`
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func newProjectView(p *models.Project) projectView {
	return projectView{
		ID:                     p.ID,
		BondID:                 p.BondID,
		Name:                   p.Name,
		ProjectType:            p.ProjectType,
		Description:            p.Description,
		Country:                p.Country,
		Region:                 p.Region,
		StartDate:              optionalDate(p.StartDate),
		ExpectedCompletionDate: optionalDate(p.ExpectedCompletionDate),
		TotalBudget:            p.TotalBudget,
		AllocatedFunds:         p.AllocatedFunds,
		SpentFunds:             p.SpentFunds,
		Status:                 string(p.Status),
	}
}

type investmentView struct {
	ID             string          `json:"id"`
	BondID         string          `json:"bondId"`
	Amount         decimal.Decimal `json:"amount"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	PurchaseDate   string          `json:"purchaseDate"`
	Status         string          `json:"status"`
	ExpectedReturn decimal.Decimal `json:"expectedReturn"`
	MaturityValue  decimal.Decimal `json:"maturityValue"`
	Fees           decimal.Decimal `json:"fees"`
	OrderID        string          `json:"orderId"`
	TransactionID  *string         `json:"transactionId"`
}

func newInvestmentView(i *models.Investment) investmentView {
	return investmentView{
		ID:             i.ID,
		BondID:         i.BondID,
		Amount:         i.Amount,
		PurchasePrice:  i.PurchasePrice,
		PurchaseDate:   i.PurchaseDate.UTC().Format(time.RFC3339),
		Status:         string(i.Status),
		ExpectedReturn: i.ExpectedReturn,
		MaturityValue:  i.MaturityValue,
		Fees:           i.Fees,
		OrderID:        i.GatewayOrderID,
		TransactionID:  i.TransactionID,
	}
}

// orderView mirrors the gateway's order entity so checkout clients can use
// it unchanged.
type orderView struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

func newOrderView(o *models.PaymentOrder) orderView {
	return orderView{
		ID:        o.GatewayOrderID,
		Entity:    "order",
		Amount:    o.AmountMinor,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.Unix(),
	}
}

type kycDocumentView struct {
	ID           string `json:"id"`
	DocumentType string `json:"documentType"`
	Key          string `json:"key"`
	CreatedAt    string `json:"createdAt"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
}

func newKYCDocumentView(d *models.KYCDocument, url string) kycDocumentView {
	return kycDocumentView{
		ID:           d.ID,
		DocumentType: d.DocumentType,
		Key:          d.StorageKey,
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
		DownloadURL:  url,
	}
}

func newKYCDocumentViews(docs []services.KYCDocumentView) []kycDocumentView {
	out := make([]kycDocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, newKYCDocumentView(d.Document, d.DownloadURL))
	}
	return out
}
