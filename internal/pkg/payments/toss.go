package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vibestack/vibestack/internal/pkg/env"
)

const defaultTossAPIBaseURL = "https://api.tosspayments.com/v1"

// TossClient talks to the Toss Payments REST API. It implements Provider.
type TossClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewTossClientFromEnv() *TossClient {
	return &TossClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("TOSS_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("TOSS_API_BASE_URL", defaultTossAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type tossPaymentResponse struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	TotalAmount int64  `json:"totalAmount"`
	Currency    string `json:"currency"`
	ApprovedAt  string `json:"approvedAt"`
}

type tossErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tossBillingKeyResponse struct {
	BillingKey  string `json:"billingKey"`
	CustomerKey string `json:"customerKey"`
	Method      string `json:"method"`
}

// ConfirmPayment executes the server-side confirm call for a redirect-flow
// payment. Amount must match what was charged; the provider rejects on
// mismatch.
func (c *TossClient) ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error) {
	if strings.TrimSpace(paymentKey) == "" || strings.TrimSpace(orderID) == "" || amount <= 0 {
		return nil, ErrMissingCallbackParameters
	}
	body := map[string]any{
		"paymentKey": paymentKey,
		"orderId":    orderID,
		"amount":     amount,
	}
	return c.postPayment(ctx, "/payments/confirm", body)
}

// ChargeBillingKey executes an off-session charge against a stored billing
// key. Used by the renewal sweep.
func (c *TossClient) ChargeBillingKey(ctx context.Context, req BillingChargeRequest) (*Payment, error) {
	if strings.TrimSpace(req.BillingKey) == "" || strings.TrimSpace(req.CustomerKey) == "" {
		return nil, ErrMissingCallbackParameters
	}
	body := map[string]any{
		"customerKey": req.CustomerKey,
		"orderId":     req.OrderID,
		"orderName":   req.OrderName,
		"amount":      req.Amount,
		"currency":    req.Currency,
	}
	return c.postPayment(ctx, "/billing/"+req.BillingKey, body)
}

// IssueBillingKey exchanges the authKey from the billing-auth redirect for a
// billing key bound to the customer key.
func (c *TossClient) IssueBillingKey(ctx context.Context, authKey, customerKey string) (string, error) {
	if strings.TrimSpace(authKey) == "" || strings.TrimSpace(customerKey) == "" {
		return "", ErrMissingCallbackParameters
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return "", ErrProviderNotConfigured
	}

	body := map[string]any{
		"authKey":     authKey,
		"customerKey": customerKey,
	}
	raw, status, err := c.do(ctx, http.MethodPost, "/billing/authorizations/issue", body)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", providerError(raw, status)
	}

	var out tossBillingKeyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.BillingKey) == "" {
		return "", errors.New("toss billing authorization returned empty billingKey")
	}
	return out.BillingKey, nil
}

// DeleteBillingKey removes a stored billing key. Best-effort for immediate
// cancellation; callers treat failure as non-blocking.
func (c *TossClient) DeleteBillingKey(ctx context.Context, billingKey string) error {
	if strings.TrimSpace(billingKey) == "" {
		return nil
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return ErrProviderNotConfigured
	}
	raw, status, err := c.do(ctx, http.MethodDelete, "/billing/keys/"+billingKey, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return providerError(raw, status)
	}
	return nil
}

func (c *TossClient) postPayment(ctx context.Context, path string, body map[string]any) (*Payment, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, ErrProviderNotConfigured
	}
	raw, status, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, providerError(raw, status)
	}

	var out tossPaymentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	payment := &Payment{
		PaymentKey:  out.PaymentKey,
		OrderID:     out.OrderID,
		Status:      out.Status,
		Method:      out.Method,
		TotalAmount: out.TotalAmount,
		Currency:    out.Currency,
	}
	if t, err := time.Parse(time.RFC3339, out.ApprovedAt); err == nil {
		payment.ApprovedAt = &t
	}
	return payment, nil
}

func (c *TossClient) do(ctx context.Context, method, path string, body map[string]any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(encoded)
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.SecretKey+":")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return raw, resp.StatusCode, nil
}

func providerError(raw []byte, status int) error {
	var e tossErrorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Code != "" {
		return fmt.Errorf("%w: status=%d code=%s message=%s", ErrProviderRejected, status, e.Code, e.Message)
	}
	return fmt.Errorf("%w: status=%d body=%s", ErrProviderRejected, status, string(raw))
}
