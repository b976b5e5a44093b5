package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses pool lifetime and timeout settings
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Policy knobs (tier lock-in threshold, booking
// quotas, registration number base) are deliberately configuration rather
// than literals: the historical rules changed between seasons and the
// values must be correctable without a code change.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	DBMaxOpenConns    int           // connection pool upper bound
	DBMaxIdleConns    int           // idle connections kept around
	DBConnMaxLifetime time.Duration // recycle connections older than this
	DBPingTimeout     time.Duration // startup connectivity check bound

	// AdminKeyHash is the bcrypt hash of the key required on the manual
	// booking-decision endpoint.  When empty the check is disabled and a
	// warning is logged at startup.
	AdminKeyHash string

	TierLockThreshold int   // switching tiers is rejected once bookings exceed this count
	OneDayQuota       int   // bookings a paid 1-day tier entitles a user to
	TwoDayQuota       int   // bookings a paid 2-day tier entitles a user to
	RegNumberBase     int64 // first registration number ever assigned
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Policy values fall
// back to the defaults of the current season when unset.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),      // environment (dev/test/prod)
		Port:   must("APP_PORT"),     // port to bind the HTTP server
		DBUser: must("DB_USER"),      // database user
		DBPass: os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost: must("DB_HOST"),      // database host
		DBPort: must("DB_PORT"),      // database port
		DBName: must("DB_NAME"),      // database name

		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBPingTimeout:     envDur("DB_PING_TIMEOUT", 5*time.Second),

		AdminKeyHash: os.Getenv("ADMIN_KEY_HASH"), // bcrypt hash, empty disables the check

		TierLockThreshold: envInt("TIER_LOCK_THRESHOLD", 2),
		OneDayQuota:       envInt("ONE_DAY_QUOTA", 2),
		TwoDayQuota:       envInt("TWO_DAY_QUOTA", 4),
		RegNumberBase:     envInt64("REG_NUMBER_BASE", 1104000),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt reads an integer environment variable, returning the default when
// the variable is unset or malformed.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// envInt64 is envInt for 64-bit values such as the registration number base.
func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return def
}
