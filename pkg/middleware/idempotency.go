package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore caches the first successful response per caller-supplied
// key so a network retry of the same logical booking request replays the
// original result instead of creating a duplicate.
type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time

	// Fingerprint binds the key to the request that produced the response;
	// reusing a key with a different request is rejected, not replayed.
	Fingerprint string
}

type InMemoryIdempotencyStore struct {
	mu     sync.RWMutex
	store  map[string]*CachedResponse
	ttl    time.Duration
	stopCh chan struct{}
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		store:  make(map[string]*CachedResponse),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	s.mu.RLock()
	response, exists := s.store[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(response.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false
	}

	return response, true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = time.Now()
	s.store[key] = response
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if time.Since(response.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	close(s.stopCh)
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays cached 2xx responses for requests carrying the given
// header. Requests without the header pass through unchanged. Concurrent
// requests with the same key are serialized through an in-flight marker so
// only the first executes; the rest replay its cached response.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	var mu sync.Mutex
	inflight := make(map[string]chan struct{})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			fingerprint := requestFingerprint(r)

			// Take the in-flight slot for the key, waiting out any holder.
			var done chan struct{}
			for {
				mu.Lock()
				other, waiting := inflight[key]
				if !waiting {
					done = make(chan struct{})
					inflight[key] = done
					mu.Unlock()
					break
				}
				mu.Unlock()

				select {
				case <-other:
					// Holder finished; retake the slot and re-check the
					// cache below. If the holder did not produce a 2xx the
					// cache stays empty and this request executes.
				case <-r.Context().Done():
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte(`{"error":"Timed out waiting for an in-flight request with the same idempotency key"}`))
					return
				}
			}

			release := func() {
				mu.Lock()
				delete(inflight, key)
				mu.Unlock()
				close(done)
			}

			// Checked while holding the slot, so a concurrent duplicate can
			// never observe an empty cache and execute a second time.
			if cached, found := store.Get(key); found {
				release()
				if cached.Fingerprint != fingerprint {
					writeKeyReuseError(w)
					return
				}
				replayCachedResponse(w, cached)
				return
			}

			defer release()

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Set(key, &CachedResponse{
					StatusCode:  capture.statusCode,
					Headers:     w.Header().Clone(),
					Body:        capture.body.Bytes(),
					Fingerprint: fingerprint,
				})
			}
		})
	}
}

// requestFingerprint hashes method, path and body. The body is restored for
// the downstream handler.
func requestFingerprint(r *http.Request) string {
	sum := sha256.New()
	_, _ = io.WriteString(sum, r.Method)
	_, _ = io.WriteString(sum, " ")
	_, _ = io.WriteString(sum, r.URL.Path)
	_, _ = io.WriteString(sum, "\n")

	if r.Body != nil {
		if body, err := io.ReadAll(r.Body); err == nil {
			sum.Write(body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
	}

	return hex.EncodeToString(sum.Sum(nil))
}

func writeKeyReuseError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_, _ = w.Write([]byte(`{"error":"Idempotency key was already used with a different request"}`))
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
