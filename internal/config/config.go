package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Fallback policies for a call whose patient context cannot be
// resolved before the AI handshake.
const (
	ContextFallbackGeneric = "generic"
	ContextFallbackAbort   = "abort"
)

// Config contains all runtime settings for the emergency call service.
type Config struct {
	BindAddr         string
	PublicHost       string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	DatabaseURL string

	OpenAIAPIKey        string
	RealtimeURL         string
	RealtimeVoice       string
	RealtimeTemperature float64
	SessionSettleDelay  time.Duration
	AgentInstructions   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	TwilioAPIBaseURL  string
	EmergencyNumber   string

	GeocoderBaseURL string

	ContextFallback string
}

const defaultRealtimeURL = "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01"

const defaultInstructions = "You are an urgent but composed voice agent calling emergency services " +
	"on behalf of a patient who cannot speak for themselves. Answer the dispatcher's questions " +
	"directly, repeat the location when asked, and never invent medical details."

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":1994"),
		PublicHost:        trimmedEnv("APP_PUBLIC_HOST"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "raymed"),
		DatabaseURL:       trimmedEnv("DATABASE_URL"),
		OpenAIAPIKey:      trimmedEnv("OPENAI_API_KEY"),
		RealtimeURL:       envOrDefault("OPENAI_REALTIME_URL", defaultRealtimeURL),
		RealtimeVoice:     envOrDefault("OPENAI_REALTIME_VOICE", "alloy"),
		AgentInstructions: envOrDefault("AGENT_INSTRUCTIONS", defaultInstructions),
		TwilioAccountSID:  trimmedEnv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   trimmedEnv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: trimmedEnv("TWILIO_PHONE_NUMBER"),
		TwilioAPIBaseURL:  envOrDefault("TWILIO_API_BASE_URL", "https://api.twilio.com/2010-04-01"),
		EmergencyNumber:   trimmedEnv("EMERGENCY_NUMBER"),
		GeocoderBaseURL:   trimmedEnv("GEOCODER_BASE_URL"),
		ContextFallback:   envOrDefault("CONTEXT_FALLBACK", ContextFallbackGeneric),

		RealtimeTemperature: 0.8,
		SessionSettleDelay:  300 * time.Millisecond,
		ShutdownTimeout:     15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionSettleDelay, err = durationFromEnv("OPENAI_SESSION_SETTLE_DELAY", cfg.SessionSettleDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.RealtimeTemperature, err = floatFromEnv("OPENAI_REALTIME_TEMPERATURE", cfg.RealtimeTemperature)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionSettleDelay < 0 {
		return Config{}, fmt.Errorf("OPENAI_SESSION_SETTLE_DELAY must not be negative")
	}
	if cfg.RealtimeTemperature < 0 || cfg.RealtimeTemperature > 2 {
		return Config{}, fmt.Errorf("OPENAI_REALTIME_TEMPERATURE must be in [0, 2]")
	}
	switch cfg.ContextFallback {
	case ContextFallbackGeneric, ContextFallbackAbort:
	default:
		return Config{}, fmt.Errorf("CONTEXT_FALLBACK must be %q or %q", ContextFallbackGeneric, ContextFallbackAbort)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
