package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.  The cache
// is off unless CACHE_ENABLED is set, because the greeting reflects the live
// database status.  Paths lists the request paths eligible for caching.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	Paths        map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", false),
		Methods:      parseList(envStr("CACHE_METHODS", "GET"), strings.ToUpper),
		Paths:        parseList(envStr("CACHE_PATHS", "/"), strings.TrimSpace),
		TTL:          envDur("CACHE_TTL", 5*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseList(s string, norm func(string) string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = norm(strings.TrimSpace(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
