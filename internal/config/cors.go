package config

import "strings"

// CORSConfig lists the origins and methods browsers may use against the API.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	MaxAge         int
}

func LoadCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: splitCSV(envStr("CORS_ALLOWED_ORIGINS", "*")),
		AllowedMethods: splitCSV(envStr("CORS_ALLOWED_METHODS", "GET,OPTIONS")),
		MaxAge:         envInt("CORS_MAX_AGE", 300),
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
