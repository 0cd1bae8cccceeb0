package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all environment-provided settings. Required values are
// validated at boot so a misconfigured deploy fails fast instead of
// surfacing as runtime send errors.
type Config struct {
	Port           string
	Env            string
	DatabaseURL    string
	JWTSecret      string
	JWTExpiryHours int

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeocoderBaseURL   string
	GeocoderUserAgent string

	CORSOrigins []string
}

var AppConfig Config

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// Load populates AppConfig from the environment. DB_URL and JWT_SECRET are
// hard requirements; Twilio credentials are optional at boot (the SMS paths
// report a configuration error when they are missing, see services).
func Load() error {
	dbURL, err := requireEnv("DB_URL")
	if err != nil {
		return err
	}
	secret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return err
	}

	expiry := 24
	if env := os.Getenv("JWT_EXPIRY_HOURS"); env != "" {
		h, err := strconv.Atoi(env)
		if err != nil || h < 1 {
			return fmt.Errorf("JWT_EXPIRY_HOURS must be a positive integer (got %q)", env)
		}
		expiry = h
	}

	redisDB := 0
	if env := os.Getenv("REDIS_DB"); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil || n < 0 {
			return fmt.Errorf("REDIS_DB must be a non-negative integer (got %q)", env)
		}
		redisDB = n
	}

	var origins []string
	for _, o := range strings.Split(getenv("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	AppConfig = Config{
		Port:           getenv("PORT", "8080"),
		Env:            getenv("ENV", "development"),
		DatabaseURL:    dbURL,
		JWTSecret:      secret,
		JWTExpiryHours: expiry,

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		GeocoderBaseURL:   getenv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getenv("GEOCODER_USER_AGENT", "cliently-backend/1.0"),

		CORSOrigins: origins,
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
