// Package razorpay is a minimal client for the Razorpay Orders API and the
// checkout signature scheme.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenbond_gateway_requests_total",
			Help: "Razorpay API attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenbond_gateway_request_duration_seconds",
			Help:    "Razorpay API attempt latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// OrderRequest creates an order. Amount is in minor units.
type OrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

// Order is the gateway's view of an order.
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Client calls the Razorpay REST API with basic auth. Each attempt is bounded
// by Timeout; transient failures are retried with exponential backoff.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries uint64
	backoff    time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithBackoff sets the first retry delay.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration, maxRetries int, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{},
		timeout:    timeout,
		maxRetries: uint64(max(maxRetries, 0)),
		backoff:    200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// KeyID is the public key id handed to checkout clients.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder creates an order for req.Amount minor units.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var order Order
	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.do(ctx, "create_order", http.MethodPost, "/orders", body, &order)
		if isTemporary(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPaymentSignature checks a checkout signature against the key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	return VerifyPaymentSignature(c.keySecret, orderID, paymentID, signature)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	timer := prometheus.NewTimer(gatewayRequestDuration.WithLabelValues(op))
	defer func() {
		timer.ObserveDuration()
		gatewayRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay: %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("razorpay: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: strconv.Itoa(resp.StatusCode)}
		var env errorEnvelope
		if json.Unmarshal(data, &env) == nil && env.Error.Code != "" {
			apiErr.Code = env.Error.Code
			apiErr.Description = env.Error.Description
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("razorpay: decoding response: %w", err)
	}
	return nil
}

// isTemporary reports whether err is worth another attempt. Creating an
// order is not idempotent on Razorpay's side, so only failures where the
// request never reached it are retried: 429, 503 and connection setup
// errors. A timeout or a reset after the request was sent is final.
func isTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		return strconv.Itoa(apiErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
