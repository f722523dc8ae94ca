package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig limits one route. Path may contain {name} segments or end in "/" to
// cover everything below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; zero disables limiting
	Window time.Duration
	Burst  int // defaults to Limit
}

// LoadConfig reads RATE_LIMIT_* environment variables over the built-in defaults.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi),
		DefaultWindow:   envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         envOr("RATE_LIMIT_IDLE_TTL", time.Hour, time.ParseDuration),
		Whitelist:       clientSet(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       clientSet(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Routes not listed use the
// default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Keyword extraction may call the LLM or fetch a remote page.
		{Path: "/keywords", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		{Path: "/score", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},

		{Path: "/sessions", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/sessions/{id}/recalculate", Method: "POST", Limit: 1200, Window: time.Minute, Burst: 120},
		{Path: "/sessions/{id}/flush", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/sessions/{id}/stream", Method: "GET", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/sessions/{id}", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// envOr parses the variable key, falling back to def when it is unset or malformed.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// clientSet turns a comma-separated list of client IDs into a set.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return set
}
