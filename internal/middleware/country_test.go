package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveCountryPrefersHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "de")
	req.RemoteAddr = "203.0.113.1:4444"

	got := ResolveCountry(req, func(ip string) (string, error) {
		t.Fatal("lookup should not be called when a header hint is present")
		return "", nil
	})
	if got != "DE" {
		t.Fatalf("ResolveCountry = %q, want DE", got)
	}
}

func TestResolveCountryFallsBackToLookup(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:4444"

	got := ResolveCountry(req, func(ip string) (string, error) {
		if ip != "203.0.113.1" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "br", nil
	})
	if got != "BR" {
		t.Fatalf("ResolveCountry = %q, want BR", got)
	}
}

func TestCountryMiddlewareDefaultsToUnknown(t *testing.T) {
	var captured string
	handler := Country(func(string) (string, error) { return "", errors.New("no db") })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = CountryFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:4444"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != UnknownCountry {
		t.Fatalf("country = %q, want %q", captured, UnknownCountry)
	}
}

func TestClientIPUsesForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	req.RemoteAddr = "203.0.113.1:4444"

	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("ClientIP = %q, want 198.51.100.7", got)
	}
}
