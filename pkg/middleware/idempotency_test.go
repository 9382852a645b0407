package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func idempotencyHarness(t *testing.T, delay time.Duration) (http.Handler, *int64, *InMemoryIdempotencyStore) {
	t.Helper()

	var calls int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"execution":%d}`, n)
	})

	store := NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(store.Stop)

	return Idempotency(store, "Idempotency-Key")(next), &calls, store
}

func postWithKey(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader([]byte(body)))
	req.Header.Set("Idempotency-Key", key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	handler, calls, _ := idempotencyHarness(t, 0)

	first := postWithKey(handler, "key-1", `{"n":1}`)
	second := postWithKey(handler, "key-1", `{"n":1}`)

	if atomic.LoadInt64(calls) != 1 {
		t.Errorf("expected a single downstream execution, got %d", *calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Errorf("expected 201 on both, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replay must return the original body: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotency_ConcurrentSameKeyExecutesOnce(t *testing.T) {
	handler, calls, _ := idempotencyHarness(t, 50*time.Millisecond)

	const requests = 5
	var wg sync.WaitGroup
	bodies := make(chan string, requests)

	wg.Add(requests)
	for i := 0; i < requests; i++ {
		go func() {
			defer wg.Done()
			rec := postWithKey(handler, "key-concurrent", `{"n":1}`)
			if rec.Code != http.StatusCreated {
				t.Errorf("expected 201, got %d", rec.Code)
			}
			body, _ := io.ReadAll(rec.Body)
			bodies <- string(body)
		}()
	}
	wg.Wait()
	close(bodies)

	if got := atomic.LoadInt64(calls); got != 1 {
		t.Errorf("concurrent duplicates must execute once, got %d executions", got)
	}

	var first string
	for body := range bodies {
		if first == "" {
			first = body
			continue
		}
		if body != first {
			t.Errorf("all duplicates must see the same response: %q vs %q", body, first)
		}
	}
}

func TestIdempotency_KeyReuseWithDifferentRequest(t *testing.T) {
	handler, calls, _ := idempotencyHarness(t, 0)

	first := postWithKey(handler, "key-2", `{"n":1}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	reused := postWithKey(handler, "key-2", `{"n":2}`)
	if reused.Code != http.StatusUnprocessableEntity {
		t.Errorf("key reuse with a different body must be rejected, got %d", reused.Code)
	}
	if atomic.LoadInt64(calls) != 1 {
		t.Errorf("rejected reuse must not execute, got %d executions", *calls)
	}
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	handler, calls, _ := idempotencyHarness(t, 0)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	if atomic.LoadInt64(calls) != 2 {
		t.Errorf("requests without a key must each execute, got %d", *calls)
	}
}

func TestIdempotency_FailedRequestIsNotCached(t *testing.T) {
	var calls int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	store := NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(store.Stop)
	handler := Idempotency(store, "Idempotency-Key")(next)

	if rec := postWithKey(handler, "key-3", `{"n":1}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on first attempt, got %d", rec.Code)
	}
	if rec := postWithKey(handler, "key-3", `{"n":1}`); rec.Code != http.StatusCreated {
		t.Errorf("a failed attempt must not be cached, retry got %d", rec.Code)
	}
	if atomic.LoadInt64(&calls) != 2 {
		t.Errorf("expected both attempts to execute, got %d", calls)
	}
}
