package payments

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/vibestack/vibestack/app/models"
)

func testCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		ClientKey:         "test_ck_123",
		CustomerKeySecret: "cust-secret",
		PublicBaseURL:     "https://vibestack.test",
	}
}

func TestNewSessionSubscription(t *testing.T) {
	cfg := testCheckoutConfig()

	session, err := cfg.NewSession(CheckoutRequest{
		UserID: 42, UserName: "Dana", UserEmail: "dana@example.com",
		Plan: "pro", Currency: "KRW", Country: "KR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Amount != 19000 {
		t.Fatalf("expected KRW pro price 19000, got %d", session.Amount)
	}
	if session.OrderID == "" || !strings.HasPrefix(session.OrderID, "ord_") {
		t.Fatalf("expected non-empty prefixed order id, got %q", session.OrderID)
	}
	if session.ClientKey != "test_ck_123" {
		t.Fatalf("unexpected client key %q", session.ClientKey)
	}
	if len(session.PaymentMethods) < 2 {
		t.Fatalf("expected KR method allowlist, got %v", session.PaymentMethods)
	}

	u, err := url.Parse(session.SuccessURL)
	if err != nil {
		t.Fatalf("invalid success url: %v", err)
	}
	q := u.Query()
	if q.Get("orderId") != session.OrderID || q.Get("plan") != "pro" || q.Get("userId") != "42" {
		t.Fatalf("success url missing callback context: %s", session.SuccessURL)
	}
	if !strings.Contains(session.FailURL, "/checkout/fail") {
		t.Fatalf("unexpected fail url: %s", session.FailURL)
	}
}

func TestNewSessionSingleContent(t *testing.T) {
	cfg := testCheckoutConfig()
	content := &models.Content{ID: 5, Title: "Advanced Channels", Premium: true, Price: 22000}

	session, err := cfg.NewSession(CheckoutRequest{
		UserID: 2, Plan: "single", Currency: "KRW", Content: content,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Amount != 22000 {
		t.Fatalf("expected content price override, got %d", session.Amount)
	}
	if session.OrderName != "Advanced Channels" {
		t.Fatalf("expected content title as order name, got %q", session.OrderName)
	}

	u, _ := url.Parse(session.SuccessURL)
	if u.Query().Get("contentId") != "5" {
		t.Fatalf("expected contentId in callback url: %s", session.SuccessURL)
	}
}

func TestNewSessionErrors(t *testing.T) {
	cfg := testCheckoutConfig()

	if _, err := cfg.NewSession(CheckoutRequest{Plan: "pro"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := cfg.NewSession(CheckoutRequest{UserID: 1, Plan: "gold"}); !errors.Is(err, ErrInvalidPlanConfiguration) {
		t.Fatalf("expected ErrInvalidPlanConfiguration, got %v", err)
	}
	if _, err := cfg.NewSession(CheckoutRequest{UserID: 1, Plan: "single"}); !errors.Is(err, ErrInvalidPlanConfiguration) {
		t.Fatalf("expected ErrInvalidPlanConfiguration for single without content, got %v", err)
	}

	unconfigured := CheckoutConfig{PublicBaseURL: "https://vibestack.test"}
	if _, err := unconfigured.NewSession(CheckoutRequest{UserID: 1, Plan: "pro"}); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestCustomerKeyDeterministic(t *testing.T) {
	cfg := testCheckoutConfig()

	first := cfg.CustomerKeyFor(42)
	second := cfg.CustomerKeyFor(42)
	other := cfg.CustomerKeyFor(43)

	if first == "" || first != second {
		t.Fatalf("expected stable customer key, got %q / %q", first, second)
	}
	if first == other {
		t.Fatalf("expected distinct keys for distinct users")
	}
}

func TestNewOrderIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewOrderID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate order id %q", id)
		}
		seen[id] = struct{}{}
	}
}
