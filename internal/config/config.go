package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the teacher API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	UpstreamBaseURL  string
	UpstreamToken    string
	UpstreamTimeout  time.Duration
	ViewCacheTTL     time.Duration
	SubscriptionTTL  time.Duration
	AIProvider       string
	OpenAIAPIKey     string
	OpenAIModel      string
	EventChannelBase string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassDesk API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("view.cache_ttl", "30s")
	v.SetDefault("subscription.cache_ttl", "5m")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai_model", "gpt-4o-mini")
	v.SetDefault("event.channel_base", "classdesk")

	upstreamTimeout, err := parseDuration(v.GetString("upstream.timeout"), "upstream timeout")
	if err != nil {
		return Config{}, err
	}

	viewTTL, err := parseDuration(v.GetString("view.cache_ttl"), "view cache ttl")
	if err != nil {
		return Config{}, err
	}

	subscriptionTTL, err := parseDuration(v.GetString("subscription.cache_ttl"), "subscription cache ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		UpstreamBaseURL:  v.GetString("upstream.base_url"),
		UpstreamToken:    v.GetString("upstream.token"),
		UpstreamTimeout:  upstreamTimeout,
		ViewCacheTTL:     viewTTL,
		SubscriptionTTL:  subscriptionTTL,
		AIProvider:       strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		OpenAIModel:      v.GetString("ai.openai_model"),
		EventChannelBase: v.GetString("event.channel_base"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UpstreamBaseURL == "" {
		return Config{}, fmt.Errorf("upstream base url must be provided")
	}

	return cfg, nil
}

func parseDuration(value, label string) (time.Duration, error) {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", label, err)
	}
	return parsed, nil
}
