package routeradapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
)

func TestSetWeightPostsAbsoluteWeight(t *testing.T) {
	var got setWeightRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/set-weight" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second, server.Client(), nil)
	if err := client.SetWeight(context.Background(), "php", 0.1); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if got.Service != "php" || got.Weight != 0.1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestSetWeightNon2xxIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad weight", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, server.Client(), nil)
	err := client.SetWeight(context.Background(), "php", 0.5)
	if !errors.Is(err, domainerrors.ErrRouterRejected) {
		t.Fatalf("expected ErrRouterRejected, got %v", err)
	}
}

func TestSetWeightTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 20*time.Millisecond, server.Client(), nil)
	err := client.SetWeight(context.Background(), "php", 0.5)
	if !errors.Is(err, domainerrors.ErrRouterUnavailable) {
		t.Fatalf("expected ErrRouterUnavailable, got %v", err)
	}
}

func TestSetWeightRejectsOutOfRangeLocally(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, nil, nil)
	if err := client.SetWeight(context.Background(), "php", 1.5); !errors.Is(err, domainerrors.ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}
}
