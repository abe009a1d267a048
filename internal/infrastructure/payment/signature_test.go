package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","eventType":"checkout.completed"}`)
	secret := "whsec_test"

	if !VerifySignature(body, sign(body, secret), secret) {
		t.Fatalf("valid signature rejected")
	}
}

func TestVerifySignaturePrefixed(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"

	if !VerifySignature(body, "v1="+sign(body, secret), secret) {
		t.Fatalf("prefixed signature rejected")
	}
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	sig := sign(body, secret)

	if VerifySignature([]byte(`{"id":"evt_2"}`), sig, secret) {
		t.Fatalf("tampered body accepted")
	}
	if VerifySignature(body, sign(body, "wrong_secret"), secret) {
		t.Fatalf("signature from wrong secret accepted")
	}
	if VerifySignature(body, "", secret) {
		t.Fatalf("empty signature accepted")
	}
	if VerifySignature(body, "not-hex", secret) {
		t.Fatalf("garbage signature accepted")
	}
}

func TestVerifySignatureRequiresSecret(t *testing.T) {
	body := []byte(`{}`)
	if VerifySignature(body, sign(body, ""), "") {
		t.Fatalf("verification must fail without a configured secret")
	}
}
