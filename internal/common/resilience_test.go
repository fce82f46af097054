package common

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(client *http.Client, retries int) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      retries,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
}

func TestDoRequestWithResilience_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := DoRequestWithResilience(context.Background(), testConfig(srv.Client(), 2), NewBreaker("test"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if n := hits.Load(); n != 3 {
		t.Fatalf("hits = %d, want 3", n)
	}
}

func TestDoRequestWithResilience_NoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := DoRequestWithResilience(context.Background(), testConfig(srv.Client(), 3), NewBreaker("test"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if !errors.Is(err, ErrUnexpectedStatus) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want unexpected status / not found", err)
	}
	if !IsStatusError(err) {
		t.Fatal("IsStatusError = false")
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("hits = %d, want 1", n)
	}
}

func TestDoRequestWithResilience_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := DoRequestWithResilience(context.Background(), testConfig(srv.Client(), 0), NewBreaker("test"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("error = %v, want ErrServerError", err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("hits = %d, want 1", n)
	}
}

func TestDoRequestWithResilience_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := DoRequestWithResilience(context.Background(), testConfig(http.DefaultClient, 0), NewBreaker("test"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	})
	if err == nil || IsStatusError(err) {
		t.Fatalf("error = %v, want a transport error", err)
	}
}

func TestHasAny(t *testing.T) {
	if !HasAny("Thunderstorm", "thunder") {
		t.Error("expected case-insensitive match")
	}
	if HasAny("Clear", "rain", "snow") {
		t.Error("unexpected match")
	}
}
