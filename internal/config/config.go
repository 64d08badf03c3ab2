package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	// SheetsURL is the Apps Script web-app endpoint backing the remote
	// round store. Empty disables sync entirely (local-only mode).
	SheetsURL string

	// CoursePath optionally overrides the built-in course card with a JSON
	// hole list (including tee/green coordinates).
	CoursePath string

	// SensorEnabled switches the location capability on. Off by default;
	// strokes are recorded without locations when no fix is available.
	SensorEnabled bool

	// SensorLat/SensorLon back the fixed-position sensor used when the
	// tracker runs somewhere without real GPS.
	SensorLat float64
	SensorLon float64
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "golf.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SheetsURL:     getEnv("SHEETS_URL", ""),
		CoursePath:    getEnv("COURSE_PATH", ""),
		SensorEnabled: getBoolEnv("SENSOR_ENABLED", false),
		SensorLat:     getFloatEnv("SENSOR_LAT", 0),
		SensorLon:     getFloatEnv("SENSOR_LON", 0),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("sync_enabled", cfg.SyncEnabled()).
		Bool("sensor_enabled", cfg.SensorEnabled).
		Msg("configuration loaded")

	return cfg, nil
}

// SyncEnabled reports whether a remote store is configured. This stands in
// for the connectivity check gating startup reconciliation.
func (c *Config) SyncEnabled() bool {
	return c.SheetsURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
