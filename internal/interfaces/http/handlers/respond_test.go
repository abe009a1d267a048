package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"subscription not found", services.ErrSubscriptionNotFound, http.StatusNotFound},
		{"cancellation expired", services.ErrCancellationExpired, http.StatusForbidden},
		{"quota exceeded", services.ErrQuotaExceeded, http.StatusTooManyRequests},
		{"not configured", services.ErrNotConfigured, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(resp)
			respondError(c, tc.err)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}
