package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/internal/pkg/env"
)

// CheckoutConfig holds everything the initiator needs. Constructed once at
// process start and injected, instead of reading globals per call.
type CheckoutConfig struct {
	ClientKey         string
	CustomerKeySecret string
	PublicBaseURL     string
}

// NewCheckoutConfigFromEnv builds the config from environment variables.
func NewCheckoutConfigFromEnv() CheckoutConfig {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return CheckoutConfig{
		ClientKey:         strings.TrimSpace(env.GetEnv("TOSS_CLIENT_KEY", "")),
		CustomerKeySecret: strings.TrimSpace(env.GetEnv("CUSTOMER_KEY_SECRET", "")),
		PublicBaseURL:     base,
	}
}

// CheckoutRequest is a (user, plan-or-content) checkout intent.
type CheckoutRequest struct {
	UserID    uint
	UserName  string
	UserEmail string
	Plan      string
	Currency  string
	Country   string
	Content   *models.Content
	ReturnURL string
}

// CheckoutSession is the provider-agnostic descriptor handed to the payment
// widget. The callback URLs embed order id, plan, content id and user id —
// that is how the confirmation handler recovers context later. When Provider
// is paypal the page skips the widget and sends the buyer to ApprovalURL.
type CheckoutSession struct {
	Provider       string   `json:"provider"`
	ClientKey      string   `json:"clientKey"`
	OrderID        string   `json:"orderId"`
	OrderName      string   `json:"orderName"`
	Amount         int64    `json:"amount"`
	Currency       string   `json:"currency"`
	CustomerKey    string   `json:"customerKey"`
	CustomerName   string   `json:"customerName"`
	CustomerEmail  string   `json:"customerEmail"`
	PaymentMethods []string `json:"paymentMethods"`
	SuccessURL     string   `json:"successUrl"`
	FailURL        string   `json:"failUrl"`
	ApprovalURL    string   `json:"approvalUrl,omitempty"`
}

// NewSession builds a checkout session descriptor for the request.
func (cfg CheckoutConfig) NewSession(req CheckoutRequest) (*CheckoutSession, error) {
	if req.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	if cfg.ClientKey == "" || cfg.CustomerKeySecret == "" {
		return nil, ErrProviderNotConfigured
	}

	plan := NormalizePlan(req.Plan)
	if plan == "" {
		return nil, ErrInvalidPlanConfiguration
	}

	currency := NormalizeCurrency(req.Currency)
	if currency == "" {
		currency = CurrencyForCountry(req.Country)
	}

	var (
		amount    int64
		orderName string
		err       error
	)
	if plan == models.PlanSingle {
		if req.Content == nil {
			return nil, ErrInvalidPlanConfiguration
		}
		amount, err = SinglePriceFor(req.Content, currency)
		orderName = req.Content.Title
	} else {
		amount, err = PriceFor(plan, currency)
		orderName = fmt.Sprintf("VibeStack %s (monthly)", plan)
	}
	if err != nil {
		return nil, err
	}

	orderID := NewOrderID()
	session := &CheckoutSession{
		Provider:       models.PaymentProviderToss,
		ClientKey:      cfg.ClientKey,
		OrderID:        orderID,
		OrderName:      orderName,
		Amount:         amount,
		Currency:       currency,
		CustomerKey:    cfg.CustomerKeyFor(req.UserID),
		CustomerName:   req.UserName,
		CustomerEmail:  req.UserEmail,
		PaymentMethods: MethodsForCountry(req.Country),
	}

	var contentID uint
	if req.Content != nil {
		contentID = req.Content.ID
	}
	session.SuccessURL = cfg.callbackURL("/checkout/confirm", orderID, plan, req.UserID, contentID)
	session.FailURL = cfg.callbackURL("/checkout/fail", orderID, plan, req.UserID, contentID)

	return session, nil
}

// NewOrderID generates a globally-unique order identifier: millisecond
// timestamp plus a random suffix. Collisions are treated as negligible.
func NewOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("ord_%d_%s", time.Now().UnixMilli(), suffix)
}

// CustomerKeyFor derives the stable provider customer key for a user.
// Deterministic, so repeated checkouts reuse the same billing customer.
func (cfg CheckoutConfig) CustomerKeyFor(userID uint) string {
	mac := hmac.New(sha256.New, []byte(cfg.CustomerKeySecret))
	mac.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return "cust_" + hex.EncodeToString(mac.Sum(nil))[:24]
}

func (cfg CheckoutConfig) callbackURL(path, orderID, plan string, userID, contentID uint) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	q.Set("plan", plan)
	q.Set("userId", strconv.FormatUint(uint64(userID), 10))
	if contentID > 0 {
		q.Set("contentId", strconv.FormatUint(uint64(contentID), 10))
	}
	return cfg.PublicBaseURL + path + "?" + q.Encode()
}
