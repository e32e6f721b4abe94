package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the daemon configuration.
type Config struct {
	DBPath     string
	HTTPAddr   string
	DeviceAddr string
	LogLevel   string
	Env        string

	// RegistrationTTL bounds how long an armed registration slot waits for
	// a scan. Zero disables the server-side expiry.
	RegistrationTTL time.Duration
}

// Load reads configuration from environment variables and an optional .env
// file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:          getenv("FEEDER_DB", "feeder.db"),
		HTTPAddr:        getenv("FEEDER_HTTP_ADDR", ":8080"),
		DeviceAddr:      getenv("FEEDER_DEVICE_ADDR", ":9600"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Env:             getenv("APP_ENV", "development"),
		RegistrationTTL: time.Duration(getenvInt("FEEDER_REG_TTL_SECONDS", 60)) * time.Second,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
