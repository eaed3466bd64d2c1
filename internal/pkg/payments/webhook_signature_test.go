package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"eventType":"PAYMENT_STATUS_CHANGED"}`)
	secret := "whsec_test"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyWebhookSignature(payload, "not-hex!", secret) {
		t.Fatalf("expected undecodable signature to fail")
	}
	if VerifyWebhookSignature([]byte(`tampered`), validSig, secret) {
		t.Fatalf("expected tampered payload to fail")
	}
}

func TestVerifyWebhookSignatureFailsClosed(t *testing.T) {
	payload := []byte(`{}`)

	// No configured secret must reject, never skip verification.
	if VerifyWebhookSignature(payload, "abcdef", "") {
		t.Fatalf("expected missing secret to fail verification")
	}
	if VerifyWebhookSignature(payload, "", "whsec_test") {
		t.Fatalf("expected missing signature header to fail verification")
	}
}
