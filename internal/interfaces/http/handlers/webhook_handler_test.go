package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/infrastructure/cache"
)

const webhookTestSecret = "whsec_test"

type fakeWebhookService struct {
	processed [][]byte
	err       error
}

func (f *fakeWebhookService) Process(_ context.Context, raw []byte) (*services.WebhookEvent, error) {
	f.processed = append(f.processed, raw)
	if f.err != nil {
		return nil, f.err
	}
	return &services.WebhookEvent{ID: "evt_1", EventType: "checkout.completed"}, nil
}

func webhookRouter(svc services.WebhookService) *gin.Engine {
	h := NewWebhookHandler(svc, cache.NewWebhookLog(nil), webhookTestSecret, testLogger())
	router := gin.New()
	router.POST("/api/webhooks/creem", h.Handle)
	return router
}

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandlerRejectsInvalidSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	router := webhookRouter(svc)

	body := `{"id":"evt_1","eventType":"checkout.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/creem", strings.NewReader(body))
	req.Header.Set("creem-signature", "deadbeef")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if len(svc.processed) != 0 {
		t.Fatalf("unsigned payload must never reach processing")
	}
}

func TestWebhookHandlerRejectsMissingSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	router := webhookRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/creem", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestWebhookHandlerAcceptsValidSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	router := webhookRouter(svc)

	body := `{"id":"evt_1","eventType":"checkout.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/creem", strings.NewReader(body))
	req.Header.Set("creem-signature", signBody(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.processed) != 1 {
		t.Fatalf("expected one processed delivery, got %d", len(svc.processed))
	}
}

func TestWebhookHandlerAcceptsPrefixedSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	router := webhookRouter(svc)

	body := `{"id":"evt_1","eventType":"subscription.active"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/creem", strings.NewReader(body))
	req.Header.Set("creem-signature", "v1="+signBody(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestWebhookHandlerAcceptsAlternateHeader(t *testing.T) {
	svc := &fakeWebhookService{}
	router := webhookRouter(svc)

	body := `{"id":"evt_1","eventType":"subscription.active"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/creem", strings.NewReader(body))
	req.Header.Set("x-creem-signature", signBody(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestWebhookHandlerReportsProcessingFailure(t *testing.T) {
	svc := &fakeWebhookService{err: context.DeadlineExceeded}
	router := webhookRouter(svc)

	body := `{"id":"evt_1","eventType":"checkout.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/creem", strings.NewReader(body))
	req.Header.Set("creem-signature", signBody(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Unprocessable deliveries are rejected with the same status a bad
	// signature gets, never acknowledged.
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
