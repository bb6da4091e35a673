package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lenshare/accessctl/internal/service"
	"go.uber.org/zap"
)

func TestRouter_AdminEndpointsRequireBearer(t *testing.T) {
	h := newTestHandler(t, &fakeAccess{decision: grantedDecision(service.ReasonPasswordSuccess)})
	router := NewRouter(h, h.Signer, zap.NewNop())

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		auth         string
		expectedCode int
	}{
		{
			name:         "password is public",
			method:       "POST",
			path:         "/api/access/password",
			body:         `{"slug":"summer-wedding","password":"letmein"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "temp-link without token",
			method:       "POST",
			path:         "/api/access/temp-link",
			body:         `{"resource_id":"R1"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "logs without token",
			method:       "GET",
			path:         "/api/access/logs?resource_id=R1",
			expectedCode: http.StatusUnauthorized,
		},
	}

	adminToken, err := h.Signer.MintAdminToken(time.Hour)
	if err != nil {
		t.Fatalf("failed to mint admin token: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}

	t.Run("logs with valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/access/logs?resource_id=R1", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})
}
