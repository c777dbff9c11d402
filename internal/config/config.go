// Package config reads service settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the value of key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port string

	DBDriver    string
	DBPath      string
	DatabaseURL string
	SeedPath    string

	RoutingProvider  string
	GoogleMapsAPIKey string
	ORSAPIKey        string
	OracleTimeout    time.Duration

	Redis       Redis
	LegCacheTTL time.Duration

	DriverStartLat float64
	DriverStartLng float64

	WorkEndTime        string
	EndLocationLat     *float64
	EndLocationLng     *float64
	EndLocationAddress string
}

// DSN is the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "pgx" || c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Load reads the environment. Callers load .env with godotenv first.
func Load() Config {
	cfg := Config{
		Port: Get("PORT", "8080"),

		DBDriver:    strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: Get("DATABASE_URL", ""),
		SeedPath:    Get("SEED_PATH", ""),

		RoutingProvider:  strings.ToLower(Get("ROUTING_PROVIDER", "none")),
		GoogleMapsAPIKey: Get("GOOGLE_MAPS_API_KEY", ""),
		ORSAPIKey:        Get("ORS_API_KEY", ""),
		OracleTimeout:    getDuration("ORACLE_TIMEOUT", 8*time.Second),

		Redis: Redis{
			Enabled:  getBool("REDIS_ENABLED", false),
			Addr:     Get("REDIS_ADDR", "localhost:6379"),
			Password: Get("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		LegCacheTTL: getDuration("LEG_CACHE_TTL", 10*time.Minute),

		DriverStartLat: getFloat("DRIVER_START_LAT", 48.8566),
		DriverStartLng: getFloat("DRIVER_START_LNG", 2.3522),

		WorkEndTime:        Get("WORK_END_TIME", ""),
		EndLocationAddress: Get("END_LOCATION_ADDRESS", ""),
	}

	if Get("END_LOCATION_LAT", "") != "" && Get("END_LOCATION_LNG", "") != "" {
		lat := getFloat("END_LOCATION_LAT", 0)
		lng := getFloat("END_LOCATION_LNG", 0)
		cfg.EndLocationLat, cfg.EndLocationLng = &lat, &lng
	}

	return cfg
}
