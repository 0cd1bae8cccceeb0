package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newTestGeocoder(baseURL string) *GeocodeService {
	return &GeocodeService{
		baseURL:   baseURL,
		userAgent: "cliently-backend-test/1.0",
		client:    &http.Client{Timeout: 5 * time.Second},
		limiter:   rate.NewLimiter(rate.Inf, 1),
		logger:    zap.NewNop(),
	}
}

func TestGeocodeSuccess(t *testing.T) {
	var gotUserAgent, gotQuery, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"lat":"26.1420358","lon":"-81.7948103"}]`)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	result, err := g.Geocode(context.Background(), "380 9th St N, Naples, FL")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if result.Latitude != 26.1420358 {
		t.Errorf("latitude = %v", result.Latitude)
	}
	if result.Longitude != -81.7948103 {
		t.Errorf("longitude = %v", result.Longitude)
	}
	if gotUserAgent != "cliently-backend-test/1.0" {
		t.Errorf("User-Agent = %q", gotUserAgent)
	}
	if gotQuery != "380 9th St N, Naples, FL" {
		t.Errorf("q = %q", gotQuery)
	}
	if gotFormat != "json" {
		t.Errorf("format = %q", gotFormat)
	}
}

func TestGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	_, err := g.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	_, err := g.Geocode(context.Background(), "380 9th St N")
	if err == nil {
		t.Fatal("expected error")
	}
	// A provider failure must stay distinguishable from a genuine no-match.
	if errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("provider failure reported as not-found: %v", err)
	}
}

func TestGeocodeEmptyAddress(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	if _, err := g.Geocode(context.Background(), "   "); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
	if hits != 0 {
		t.Errorf("blank address should not reach the geocoder, got %d requests", hits)
	}
}

func TestGeocodeCacheKeyNormalization(t *testing.T) {
	a := geocodeCacheKey("380 9th  St N,  Naples")
	b := geocodeCacheKey("  380 9TH ST N, NAPLES ")
	if a != b {
		t.Fatalf("cache keys differ: %q vs %q", a, b)
	}
}
