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
	"net/url"
	"strings"
	"time"

	"github.com/vibestack/vibestack/internal/pkg/env"
)

const defaultPayPalAPIBaseURL = "https://api-m.sandbox.paypal.com"

// PayPalClient is the second gateway, used for non-KRW checkouts. The flow
// is create-order -> buyer approval redirect -> capture on return; later
// state changes (refunds) arrive on the shared webhook endpoint.
type PayPalClient struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string

	HTTPClient *http.Client
}

func NewPayPalClientFromEnv() *PayPalClient {
	return &PayPalClient{
		ClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", defaultPayPalAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PayPalOrder is the created provider order with its buyer approval link.
type PayPalOrder struct {
	OrderID     string
	Status      string
	ApprovalURL string
}

type payPalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CreateOrder registers a provider order referencing our order id and
// returns the approval URL the buyer is redirected to.
func (c *PayPalClient) CreateOrder(ctx context.Context, orderID string, amount int64, currency, returnURL, cancelURL string) (*PayPalOrder, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, ErrProviderNotConfigured
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": orderID,
				"amount": map[string]any{
					"currency_code": currency,
					"value":         formatPayPalAmount(amount, currency),
				},
			},
		},
		"payment_source": map[string]any{
			"paypal": map[string]any{
				"experience_context": map[string]any{
					"return_url": returnURL,
					"cancel_url": cancelURL,
				},
			},
		},
	}

	raw, status, err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrProviderRejected, status, string(raw))
	}

	var out payPalOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	order := &PayPalOrder{OrderID: out.ID, Status: out.Status}
	for _, link := range out.Links {
		if link.Rel == "payer-action" || link.Rel == "approve" {
			order.ApprovalURL = link.Href
			break
		}
	}
	if order.OrderID == "" {
		return nil, errors.New("paypal order creation returned empty id")
	}
	return order, nil
}

// CaptureOrder captures an approved order and maps the result onto the
// provider-agnostic Payment shape (COMPLETED becomes DONE).
func (c *PayPalClient) CaptureOrder(ctx context.Context, providerOrderID string) (*Payment, error) {
	if strings.TrimSpace(providerOrderID) == "" {
		return nil, ErrMissingCallbackParameters
	}
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, ErrProviderNotConfigured
	}

	raw, status, err := c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+providerOrderID+"/capture", map[string]any{})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrProviderRejected, status, string(raw))
	}

	var out payPalOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	payment := &Payment{
		PaymentKey: out.ID,
		Status:     out.Status,
	}
	if out.Status == "COMPLETED" {
		payment.Status = PaymentStatusDone
	}
	for _, pu := range out.PurchaseUnits {
		payment.OrderID = pu.ReferenceID
		for _, cap := range pu.Payments.Captures {
			payment.PaymentKey = cap.ID
			payment.Currency = cap.Amount.CurrencyCode
			payment.TotalAmount = parsePayPalAmount(cap.Amount.Value, cap.Amount.CurrencyCode)
		}
	}
	return payment, nil
}

func (c *PayPalClient) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.APIBaseURL, "/")+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal token response missing access_token")
	}
	return out.AccessToken, nil
}

func (c *PayPalClient) do(ctx context.Context, method, path string, body map[string]any) ([]byte, int, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.APIBaseURL, "/")+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return raw, resp.StatusCode, nil
}

// formatPayPalAmount renders minor units as the decimal string PayPal
// expects. JPY and KRW are zero-decimal currencies.
func formatPayPalAmount(amount int64, currency string) string {
	switch strings.ToUpper(currency) {
	case CurrencyJPY, CurrencyKRW:
		return fmt.Sprintf("%d", amount)
	default:
		return fmt.Sprintf("%d.%02d", amount/100, amount%100)
	}
}

func parsePayPalAmount(value, currency string) int64 {
	parts := strings.SplitN(value, ".", 2)
	var major, minor int64
	fmt.Sscanf(parts[0], "%d", &major)
	switch strings.ToUpper(currency) {
	case CurrencyJPY, CurrencyKRW:
		return major
	}
	if len(parts) == 2 {
		frac := parts[1]
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		fmt.Sscanf(frac, "%d", &minor)
	}
	return major*100 + minor
}
