package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeWindowStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeWindowStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestWebhookRateLimitBlocksOverLimit(t *testing.T) {
	store := &fakeWindowStore{}
	handler := WebhookRateLimit(store, 2, time.Minute, "X-Shop-Domain", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/channel", nil)
		req.Header.Set("X-Shop-Domain", "goldys.myshopify.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/channel", nil)
	req.Header.Set("X-Shop-Domain", "goldys.myshopify.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestWebhookRateLimitScopesPerDomain(t *testing.T) {
	store := &fakeWindowStore{}
	handler := WebhookRateLimit(store, 1, time.Minute, "X-Shop-Domain", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, domain := range []string{"a.myshopify.com", "b.myshopify.com"} {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/channel", nil)
		req.Header.Set("X-Shop-Domain", domain)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWebhookRateLimitDisabledWithoutStore(t *testing.T) {
	handler := WebhookRateLimit(nil, 1, time.Minute, "X-Shop-Domain", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/channel", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
