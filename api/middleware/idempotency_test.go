package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{"create sale", http.MethodPost, "/api/v1/sales", criticalIdempotencyTTL, true},
		{"change status", http.MethodPost, "/api/v1/sales/123/status", criticalIdempotencyTTL, true},
		{"add item", http.MethodPost, "/api/v1/sales/123/items", criticalIdempotencyTTL, true},
		{"confirm reservation", http.MethodPost, "/api/v1/reservations/456/confirm", criticalIdempotencyTTL, true},
		{"create product", http.MethodPost, "/api/v1/products", defaultIdempotencyTTL, true},
		{"adjust stock", http.MethodPost, "/api/v1/products/789/stock", defaultIdempotencyTTL, true},
		{"non idempotent read", http.MethodGet, "/api/v1/sales", 0, false},
		{"public storefront", http.MethodGet, "/api/public/v1/products", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"foo":"bar"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

// Inside a mounted group chi has only resolved the parent pattern when
// middleware runs, so the rules must fire on the raw path.
func TestIdempotencyEnforcedUnderMountedGroup(t *testing.T) {
	store := newFakeStore()
	var calls int
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(store, nil))
		r.Post("/sales", func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
		})
	})

	bare := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"kind":"sale"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, bare)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatalf("handler should not run without idempotency key")
	}

	keyed := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"kind":"sale"}`))
	keyed.Header.Set("Idempotency-Key", "pedido-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, keyed)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"kind":"sale"}`))
	replay.Header.Set("Idempotency-Key", "pedido-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, replay)
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	body := `{"customerName":"Ana"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	replay.Header.Set("Idempotency-Key", "abc")
	replayResp := httptest.NewRecorder()
	mw(handler).ServeHTTP(replayResp, replay)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if replayResp.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", replayResp.Code)
	}
	if got := replayResp.Body.String(); got != `{"ok":true}` {
		t.Fatalf("unexpected replayed body %q", got)
	}
}

func TestIdempotencyMiddlewareRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"customerName":"Ana"}`))
	first.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"customerName":"Bia"}`))
	second.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected idempotency error code, got %q", envelope.Error.Code)
	}
}
