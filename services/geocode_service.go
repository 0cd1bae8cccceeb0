package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cliently-backend/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrAddressNotFound means the geocoder answered but matched nothing.
// Transport and provider failures surface as ordinary errors instead.
var ErrAddressNotFound = errors.New("address not found")

// Cached coordinates stay valid a long time; street addresses do not move.
const geocodeCacheTTL = 30 * 24 * time.Hour

type GeocodeResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodeService resolves street addresses against a Nominatim-compatible
// endpoint, caching hits in Redis and pacing live lookups to one per
// second, which is what the public Nominatim instance tolerates.
type GeocodeService struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	cache     *redis.Client
	logger    *zap.Logger
}

func NewGeocodeService(cache *redis.Client) *GeocodeService {
	return &GeocodeService{
		baseURL:   config.AppConfig.GeocoderBaseURL,
		userAgent: config.AppConfig.GeocoderUserAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		cache:     cache,
		logger:    zap.L(),
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func geocodeCacheKey(address string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode resolves an address to coordinates. Cache first, then a live
// lookup. A nil Redis client simply means every call is a live lookup.
func (g *GeocodeService) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrAddressNotFound
	}

	key := geocodeCacheKey(address)
	if g.cache != nil {
		if raw, err := g.cache.Get(ctx, key).Result(); err == nil {
			var cached GeocodeResult
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", g.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	// Nominatim rejects requests without an identifying User-Agent.
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocoder returned invalid JSON: %w", err)
	}
	if len(places) == 0 {
		return nil, ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned invalid latitude %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned invalid longitude %q", places[0].Lon)
	}

	result := &GeocodeResult{Latitude: lat, Longitude: lon}

	if g.cache != nil {
		raw, err := json.Marshal(result)
		if err == nil {
			if err := g.cache.Set(ctx, key, raw, geocodeCacheTTL).Err(); err != nil {
				g.logger.Warn("Failed to cache geocode result", zap.Error(err))
			}
		}
	}
	return result, nil
}
