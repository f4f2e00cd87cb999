package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Port is the TCP port the HTTP listener binds to.  It is intentionally not
// read from the environment.
const Port = "3000"

// Config holds all runtime configuration values.  Nothing here is required:
// the server must start with an empty environment.
type Config struct {
	Env        string   // application environment (e.g. "dev", "prod")
	Port       string   // HTTP port to listen on, always Port
	JWTSecret  string   // secret used to verify operator tokens; empty disables /v1/status
	TrustProxy bool     // read client IPs from X-Forwarded-For set by private-range proxies
	DB         DBConfig // database connector settings
}

// DBConfig describes the single database connection the server may open.
// Enabled defaults to false, which keeps the connector dormant.
type DBConfig struct {
	Enabled        bool
	Driver         string // "mysql" or "postgres"
	User           string
	Password       string
	Host           string
	Port           string
	Name           string
	ConnectTimeout time.Duration
}

// Load reads a .env file when one exists and then builds a Config from the
// process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}
	return Config{
		Env:        envStr("APP_ENV", "dev"),
		Port:       Port,
		JWTSecret:  os.Getenv("JWT_SECRET"),
		TrustProxy: envBool("TRUST_PROXY", false),
		DB:         LoadDBConfig(),
	}
}

// LoadDBConfig reads the DB_* variables.  The port default follows the driver.
func LoadDBConfig() DBConfig {
	driver := strings.ToLower(envStr("DB_DRIVER", "mysql"))
	defPort := "3306"
	if driver == "postgres" {
		defPort = "5432"
	}
	return DBConfig{
		Enabled:        envBool("DB_ENABLED", false),
		Driver:         driver,
		User:           os.Getenv("DB_USERNAME"),
		Password:       os.Getenv("DB_PASSWORD"),
		Host:           envStr("DB_HOST", "localhost"),
		Port:           envStr("DB_PORT", defPort),
		Name:           os.Getenv("DB_NAME"),
		ConnectTimeout: envDur("DB_CONNECT_TIMEOUT", 5*time.Second),
	}
}
