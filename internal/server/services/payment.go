package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ecoquad/greenbond/internal/cache"
	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/events"
	"github.com/ecoquad/greenbond/internal/server/gateway/razorpay"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

const (
	maxReceiptLen        = 40
	idempotencyInFlight  = "in-flight"
	defaultInFlightTTL   = time.Minute
	VerificationVerified = "verified"
	VerificationRepeated = "already_verified"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Gateway is the payment gateway the service talks to.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
	KeyID() string
}

// CreateOrderInput describes an order request. UserID is empty for
// anonymous callers; BondID links the order to an investment.
type CreateOrderInput struct {
	Amount         decimal.Decimal
	Currency       string
	Receipt        string
	IdempotencyKey string
	BondID         string
	UserID         string
}

// OrderResult is a created (or replayed) order.
type OrderResult struct {
	Order    *models.PaymentOrder
	KeyID    string
	Replayed bool
}

// VerifyResult reports how a payment verification was applied.
type VerifyResult struct {
	Status  string
	OrderID string
}

// PaymentDeps are the collaborators of PaymentService.
type PaymentDeps struct {
	Gateway        Gateway
	Idempotency    cache.Store
	IdempotencyTTL time.Duration
	// InFlightTTL bounds how long a reservation blocks retries when the
	// request that made it never finishes. Defaults to one minute.
	InFlightTTL time.Duration
	Events      events.Publisher
	Logger      logging.Logger
}

// PaymentService creates gateway orders and records verified payments.
type PaymentService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	gateway        Gateway
	idempotency    cache.Store
	idempotencyTTL time.Duration
	inFlightTTL    time.Duration
	events         events.Publisher
	logger         logging.Logger
	now            func() time.Time
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, deps PaymentDeps) *PaymentService {
	inFlight := deps.InFlightTTL
	if inFlight <= 0 {
		inFlight = defaultInFlightTTL
	}
	return &PaymentService{
		db:             db,
		repomanager:    m,
		gateway:        deps.Gateway,
		idempotency:    deps.Idempotency,
		idempotencyTTL: deps.IdempotencyTTL,
		inFlightTTL:    inFlight,
		events:         deps.Events,
		logger:         deps.Logger.With("module", "payment_service"),
		now:            time.Now,
	}
}

// KeyID is the public gateway key for checkout clients.
func (s *PaymentService) KeyID() string {
	return s.gateway.KeyID()
}

// ToMinorUnits converts a major-unit amount to an integer count of minor
// units (x100). Amounts must be positive with at most two decimal places.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, common.NewValidationError("amount must be greater than 0")
	}
	minor := amount.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, common.NewValidationError("amount must have at most 2 decimal places")
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, common.NewValidationError("amount is too large")
	}
	return minor.IntPart(), nil
}

// idempotencyScope namespaces a client key by caller so that two callers
// sending the same Idempotency-Key never share an order.
func idempotencyScope(userID, key string) string {
	if userID == "" {
		return "anon:" + key
	}
	return "user:" + userID + ":" + key
}

// CreateOrder creates a gateway order for in.Amount. With an idempotency
// key, a repeated request from the same caller returns the stored order
// without calling the gateway, and a concurrent duplicate fails with
// ErrIdempotencyInFlight.
func (s *PaymentService) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderResult, error) {
	minor, err := ToMinorUnits(in.Amount)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = common.DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return nil, common.NewValidationError("Invalid currency")
	}

	receipt := in.Receipt
	if receipt == "" {
		receipt = "receipt_" + common.NewULID(s.now())
	}
	if len(receipt) > maxReceiptLen {
		return nil, common.NewValidationError(fmt.Sprintf("receipt must be at most %d characters", maxReceiptLen))
	}

	var bond *models.GreenBond
	if in.BondID != "" {
		if bond, err = s.checkInvestable(ctx, in, currency); err != nil {
			return nil, err
		}
		in.BondID = bond.ID
	}

	var key string
	if in.IdempotencyKey != "" {
		key = idempotencyScope(in.UserID, in.IdempotencyKey)
		replay, err := s.reserveIdempotencyKey(ctx, key, in, minor, currency)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	order, err := s.createAndStore(ctx, in, key, bond, minor, currency, receipt)
	if err != nil {
		if key != "" {
			s.releaseKey(ctx, key)
		}
		return nil, err
	}

	if key != "" {
		s.recordKey(ctx, key, order.GatewayOrderID)
	}

	return &OrderResult{Order: order, KeyID: s.gateway.KeyID()}, nil
}

func (s *PaymentService) checkInvestable(ctx context.Context, in CreateOrderInput, currency string) (*models.GreenBond, error) {
	if in.UserID == "" {
		return nil, common.NewAuthError("Authorization token is required")
	}
	if !isUUID(in.BondID) {
		return nil, common.ErrorNotFound
	}
	bond, err := s.repomanager.Bonds(s.db).GetByID(ctx, in.BondID)
	if err != nil {
		return nil, err
	}
	if bond.Status != models.BondActive {
		return nil, common.NewValidationError("Bond is not open for investment")
	}
	if bond.Currency != currency {
		return nil, common.NewValidationError("Currency does not match the bond currency")
	}
	if in.Amount.LessThan(bond.MinimumInvestment) {
		return nil, common.NewValidationError("Amount is below the minimum investment of " + bond.MinimumInvestment.StringFixed(2))
	}
	if in.Amount.GreaterThan(bond.Remaining()) {
		return nil, common.ErrFundingExceeded
	}
	return bond, nil
}

// releaseKey frees a reservation after a failed attempt. It runs even when
// the request context is already cancelled, otherwise retries would see the
// key as in flight until the reservation expires.
func (s *PaymentService) releaseKey(ctx context.Context, key string) {
	if err := s.idempotency.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn(ctx, "idempotency key not released", "error", err)
	}
}

func (s *PaymentService) recordKey(ctx context.Context, key, orderID string) {
	if err := s.idempotency.Set(context.WithoutCancel(ctx), key, orderID, s.idempotencyTTL); err != nil {
		s.logger.Warn(ctx, "idempotency key not recorded", "order_id", orderID, "error", err)
	}
}

// reserveIdempotencyKey claims the scoped key for this request. It returns
// a non-nil result when the key already produced an order.
func (s *PaymentService) reserveIdempotencyKey(ctx context.Context, key string, in CreateOrderInput, minor int64, currency string) (*OrderResult, error) {
	reserved, err := s.idempotency.SetNX(ctx, key, idempotencyInFlight, s.inFlightTTL)
	if err != nil {
		return nil, fmt.Errorf("error reserving idempotency key: %w", err)
	}

	if !reserved {
		v, err := s.idempotency.Get(ctx, key)
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("error reading idempotency key: %w", err)
		}
		if v == idempotencyInFlight {
			return nil, common.ErrIdempotencyInFlight
		}
	}

	// The database is authoritative: the store may have lost the key.
	existing, err := s.repomanager.Orders(s.db).GetByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		if reserved {
			s.recordKey(ctx, key, existing.GatewayOrderID)
		}
		if existing.AmountMinor != minor || existing.Currency != currency ||
			ptrValue(existing.UserID) != in.UserID || ptrValue(existing.BondID) != in.BondID {
			return nil, common.NewValidationError("Idempotency-Key was already used with a different request")
		}
		return &OrderResult{Order: existing, KeyID: s.gateway.KeyID(), Replayed: true}, nil
	case errors.Is(err, common.ErrorNotFound):
		if !reserved {
			return nil, common.ErrIdempotencyInFlight
		}
		return nil, nil
	default:
		if reserved {
			s.releaseKey(ctx, key)
		}
		return nil, fmt.Errorf("error loading order: %w", err)
	}
}

func ptrValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *PaymentService) createAndStore(ctx context.Context, in CreateOrderInput, key string, bond *models.GreenBond, minor int64, currency, receipt string) (*models.PaymentOrder, error) {
	s.logger.Info(ctx, "creating order", "amount_minor", minor, "currency", currency, "receipt", receipt)

	gwOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:         minor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		if errors.Is(err, razorpay.ErrAuthentication) {
			return nil, fmt.Errorf("%w: %w", common.ErrGatewayAuth, err)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrGateway, err)
	}

	order := &models.PaymentOrder{
		GatewayOrderID: gwOrder.ID,
		AmountMinor:    minor,
		Currency:       currency,
		Receipt:        receipt,
		Status:         models.OrderCreated,
	}
	if key != "" {
		order.IdempotencyKey = &key
	}
	if in.UserID != "" {
		order.UserID = &in.UserID
	}
	if bond != nil {
		order.BondID = &bond.ID
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Orders(tx).Create(ctx, order); err != nil {
			return err
		}
		if bond == nil {
			return nil
		}
		ret := expectedReturn(in.Amount, bond, s.now())
		return s.repomanager.Investments(tx).Create(ctx, &models.Investment{
			InvestorID:     in.UserID,
			BondID:         bond.ID,
			Amount:         in.Amount,
			PurchasePrice:  in.Amount,
			Status:         models.InvestmentPending,
			ExpectedReturn: ret,
			MaturityValue:  in.Amount.Add(ret),
			GatewayOrderID: gwOrder.ID,
		})
	})
	if err != nil {
		s.logger.Error(ctx, "gateway order created but not stored", "order_id", gwOrder.ID, "error", err)
		return nil, fmt.Errorf("error storing order: %w", err)
	}

	s.logger.Info(ctx, "order created", "order_id", gwOrder.ID)
	return order, nil
}

// expectedReturn is the simple coupon income over the bond's term left at now.
func expectedReturn(amount decimal.Decimal, bond *models.GreenBond, now time.Time) decimal.Decimal {
	years := decimal.NewFromFloat(bond.MaturityDate.Sub(now).Hours() / (24 * 365))
	if !years.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(bond.CouponRate).Div(decimal.NewFromInt(100)).Mul(years).Round(2)
}

// VerifyPayment checks the checkout signature and records the payment. The
// first verification of an order marks it paid and confirms the linked
// investment, raising the bond's amount within its total; later
// verifications of the same payment report already_verified.
func (s *PaymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*VerifyResult, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, common.NewValidationError("missing payment data")
	}
	if err := s.gateway.VerifyPaymentSignature(orderID, paymentID, signature); err != nil {
		s.logger.Warn(ctx, "payment signature rejected", "order_id", orderID)
		return nil, common.ErrVerification
	}

	result := &VerifyResult{Status: VerificationVerified, OrderID: orderID}
	var paid *models.PaymentOrder
	var fundingErr error

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		order, err := s.repomanager.Orders(tx).GetByGatewayOrderIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "verified payment for unknown order", "order_id", orderID)
				return nil
			}
			return err
		}

		if order.Status == models.OrderPaid {
			if order.PaymentID != nil && *order.PaymentID == paymentID {
				result.Status = VerificationRepeated
				return nil
			}
			return fmt.Errorf("%w: order already paid by another payment", common.ErrVerification)
		}

		if err := s.repomanager.Orders(tx).MarkPaid(ctx, orderID, paymentID); err != nil {
			return err
		}
		paid = order

		if order.BondID == nil {
			return nil
		}
		fundingErr = s.settleInvestment(ctx, tx, order, paymentID)
		if fundingErr != nil && !errors.Is(fundingErr, common.ErrFundingExceeded) {
			return fundingErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid != nil {
		s.logger.Info(ctx, "payment verified", "order_id", orderID, "payment_id", paymentID)
		ev := events.PaymentVerified{
			OrderID: orderID, PaymentID: paymentID, AmountMinor: paid.AmountMinor,
			Currency: paid.Currency, OccurredAt: s.now().UTC(),
		}
		if paid.UserID != nil {
			ev.UserID = *paid.UserID
		}
		if paid.BondID != nil {
			ev.BondID = *paid.BondID
		}
		if err := s.events.Publish(ctx, events.SubjectPaymentVerified, ev); err != nil {
			s.logger.Warn(ctx, "event not published", "subject", events.SubjectPaymentVerified, "error", err)
		}
	}

	if fundingErr != nil {
		s.logger.Error(ctx, "payment captured beyond bond total; refund required", "order_id", orderID, "payment_id", paymentID)
		return nil, fundingErr
	}
	return result, nil
}

// settleInvestment confirms the order's investment and raises the bond's
// amount. When the bond is already fully raised the investment is marked
// failed and ErrFundingExceeded is returned; the payment stays recorded.
func (s *PaymentService) settleInvestment(ctx context.Context, tx dbx.DBTX, order *models.PaymentOrder, paymentID string) error {
	invRepo := s.repomanager.Investments(tx)
	inv, err := invRepo.GetByGatewayOrderID(ctx, order.GatewayOrderID)
	if err != nil {
		return err
	}

	if err := s.repomanager.Bonds(tx).AddRaised(ctx, inv.BondID, inv.Amount); err != nil {
		if errors.Is(err, common.ErrFundingExceeded) {
			if failErr := invRepo.Fail(ctx, inv.ID, paymentID); failErr != nil {
				return failErr
			}
		}
		return err
	}
	return invRepo.Confirm(ctx, inv.ID, paymentID)
}
