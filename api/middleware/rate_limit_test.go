package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

type fakeLimiter struct {
	counts map[string]int64
	scopes []string
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	f.scopes = append(f.scopes, scope)
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func actorFor(role enums.Role) policy.Actor {
	return policy.Actor{UserID: uuid.New(), Role: role}
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("coupon_validate", time.Minute, 2), limiter, nil)(okHandler())
	actor := actorFor(enums.RoleCustomer)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", nil)
		req = req.WithContext(WithActor(req.Context(), actor))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
		if resp.Code == http.StatusTooManyRequests && resp.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", resp.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if limiter.scopes[0] != "coupon_validate:user:"+actor.UserID.String() {
		t.Fatalf("unexpected scope %s", limiter.scopes[0])
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("coupon_validate", time.Minute, 5), limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(limiter.scopes) != 1 || limiter.scopes[0] != "coupon_validate:ip:203.0.113.9" {
		t.Fatalf("unexpected scopes %v", limiter.scopes)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("coupon_validate", 0, 5), limiter, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusOK || len(limiter.scopes) != 0 {
		t.Fatalf("expected pass-through, got %d with %v", resp.Code, limiter.scopes)
	}
}
