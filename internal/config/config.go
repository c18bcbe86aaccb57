// Package config defines the process configuration for the RideWise API and
// CLI. Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Secret files referenced by X_FILE (Lowest)
//
// X_FILE references are honoured only for SecretString fields.
//
// A missing required value or an invalid format fails the load.
package config

import (
	"time"

	"ridewise/internal/types"
)

// SecretString is an alias for types.SecretString so config structs can
// declare redacted fields without importing types.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the section they need.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"ridewise-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Weather       WeatherConfig
	Places        PlacesConfig
	Geocoding     GeocodingConfig
	Maps          MapsConfig
	MQTT          MQTTConfig
	Observability ObservabilityConfig
	Security      SecurityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the trip store connection. Waypoint and route
// endpoints are disabled when URL is empty.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"omitempty,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"5" validate:"min=1"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"1" validate:"min=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// CacheConfig holds the local SQLite key-value store settings.
type CacheConfig struct {
	Path       string        `envconfig:"CACHE_PATH" default:"ridewise-cache.db" validate:"required"`
	PlacesTTL  time.Duration `envconfig:"CACHE_PLACES_TTL" default:"30m"`
	GeocodeTTL time.Duration `envconfig:"CACHE_GEOCODE_TTL" default:"24h"`

	CleanupInterval time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"15m"`
}

// WeatherConfig configures the Open-Meteo forecast client.
type WeatherConfig struct {
	BaseURL      string        `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com" validate:"required,url"`
	ForecastDays int           `envconfig:"WEATHER_FORECAST_DAYS" default:"3" validate:"min=1,max=16"`
	Timeout      time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
}

// PlacesConfig configures the Google Places client. Place lookups fail with
// upstream_places_not_configured when APIKey is empty.
type PlacesConfig struct {
	APIKey        SecretString  `envconfig:"PLACES_API_KEY"`
	BaseURL       string        `envconfig:"PLACES_BASE_URL" default:"https://maps.googleapis.com/maps/api/place" validate:"required,url"`
	DefaultRadius int           `envconfig:"PLACES_DEFAULT_RADIUS" default:"5000" validate:"min=1,max=50000"`
	Timeout       time.Duration `envconfig:"PLACES_TIMEOUT" default:"10s"`
}

// GeocodingConfig configures the Nominatim client. Nominatim's usage policy
// requires an identifying User-Agent.
type GeocodingConfig struct {
	BaseURL   string        `envconfig:"GEOCODING_BASE_URL" default:"https://nominatim.openstreetmap.org" validate:"required,url"`
	UserAgent string        `envconfig:"GEOCODING_USER_AGENT" default:"RideWise/1.0" validate:"required"`
	Timeout   time.Duration `envconfig:"GEOCODING_TIMEOUT" default:"10s"`
}

// MapsConfig selects the static map provider. Without a key, map images fall
// back to the tile server.
type MapsConfig struct {
	StaticMapKey      SecretString `envconfig:"MAPS_STATIC_KEY"`
	StaticMapEndpoint string       `envconfig:"MAPS_STATIC_ENDPOINT" default:"https://maps.googleapis.com/maps/api/staticmap" validate:"required,url"`
	TileTemplate      string       `envconfig:"MAPS_TILE_TEMPLATE" default:"https://tile.openstreetmap.org/{z}/{x}/{y}.png" validate:"required"`
}

// MQTTConfig configures the live position tracker. The tracker is disabled
// when BrokerURL is empty.
type MQTTConfig struct {
	BrokerURL   string       `envconfig:"MQTT_BROKER_URL" validate:"omitempty,url"`
	ClientID    string       `envconfig:"MQTT_CLIENT_ID" default:"ridewise-api"`
	TopicPrefix string       `envconfig:"MQTT_TOPIC_PREFIX" default:"ridewise/rider" validate:"required"`
	Username    string       `envconfig:"MQTT_USERNAME"`
	Password    SecretString `envconfig:"MQTT_PASSWORD"`

	// RetryInterval spaces connection attempts while the broker is
	// unreachable, including at startup.
	RetryInterval time.Duration `envconfig:"MQTT_RETRY_INTERVAL" default:"15s"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"RideWise"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// TripsEnabled reports whether a trip database is configured.
func (c *Config) TripsEnabled() bool {
	return c.Database.URL.IsSet()
}

// TrackerEnabled reports whether an MQTT broker is configured.
func (c *Config) TrackerEnabled() bool {
	return c.MQTT.BrokerURL != ""
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSecretResolution indicates a secret file reference could not be read.
	ErrSecretResolution ConfigErrorType = "SECRET_RESOLUTION_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
