package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"patient-access/internal/ports/auth"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k1" {
			http.Error(w, "bad key", http.StatusForbidden)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "u1", "email": "a@example.com", "role": "DOCTOR"})
		case "Bearer broken":
			http.Error(w, "boom", http.StatusBadGateway)
		case "Bearer anonymous":
			_ = json.NewEncoder(w).Encode(map[string]string{"email": "a@example.com"})
		default:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_Verify(t *testing.T) {
	srv := newTestServer(t)
	v, err := NewVerifier(Config{VerifyURL: srv.URL + "/v1/tokens/verify", APIKey: "k1"})
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}
	ctx := context.Background()

	c, err := v.Verify(ctx, "good")
	if err != nil || c.UserID != "u1" || c.Role != "DOCTOR" {
		t.Fatalf("unexpected: %+v err=%v", c, err)
	}
	if _, err := v.Verify(ctx, "bad"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := v.Verify(ctx, "broken"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if _, err := v.Verify(ctx, "anonymous"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream for missing user_id, got %v", err)
	}
}

func TestNewVerifier_RequiresURL(t *testing.T) {
	if _, err := NewVerifier(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
