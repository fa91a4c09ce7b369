package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Admin     AdminConfig
	Routing   RoutingConfig
	Redis     RedisConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Environment    string
	MaxRequestBody int64
}

// StoreConfig selects the record store backend: "mongo", "postgres" or "memory".
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type MongoConfig struct {
	URI         string
	Database    string
	Collection  string
	MaxPoolSize uint64
	Timeout     time.Duration
}

type AdminConfig struct {
	Key     string
	KeyHash string
}

type RoutingConfig struct {
	Provider      string // "static" or "ors"
	DefaultOrigin string
	ORSAPIKey     string
	ORSBaseURL    string
	ORSTimeout    time.Duration
	SampleCount   int
}

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("SERVER_MAX_REQUEST_BYTES", 1<<20)

	viper.SetDefault("STORE_DRIVER", "mongo")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "tracking_demo")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGODB_DB", "tracking_demo")
	viper.SetDefault("MONGODB_COLLECTION", "trackings")
	viper.SetDefault("MONGODB_MAX_POOL_SIZE", 5)
	viper.SetDefault("MONGODB_TIMEOUT_MS", 5000)

	viper.SetDefault("ROUTE_PROVIDER", "static")
	viper.SetDefault("DEFAULT_ORIGIN", "Los Angeles, CA")
	viper.SetDefault("ORS_BASE_URL", "https://api.openrouteservice.org")
	viper.SetDefault("ORS_TIMEOUT_SEC", 10)
	viper.SetDefault("ORS_SAMPLE_COUNT", 50)

	viper.SetDefault("TRACKING_CACHE_TTL_SEC", 30)

	viper.SetDefault("MQTT_ENABLED", false)
	viper.SetDefault("MQTT_BROKER", "tcp://localhost:1883")
	viper.SetDefault("MQTT_CLIENT_ID", "package-tracking")
	viper.SetDefault("MQTT_TOPIC", "tracking/+/location")
	viper.SetDefault("MQTT_QOS", 1)

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 10)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 20)

	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Admin-Key", "X-Request-ID"})
	viper.SetDefault("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"})
	viper.SetDefault("CORS_MAX_AGE", 43200)
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Host:           viper.GetString("SERVER_HOST"),
			Environment:    viper.GetString("ENVIRONMENT"),
			MaxRequestBody: viper.GetInt64("SERVER_MAX_REQUEST_BYTES"),
		},
		Store: StoreConfig{
			Driver: viper.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			DBName:       viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			AutoMigrate:  viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Mongo: MongoConfig{
			URI:         viper.GetString("MONGODB_URI"),
			Database:    viper.GetString("MONGODB_DB"),
			Collection:  viper.GetString("MONGODB_COLLECTION"),
			MaxPoolSize: viper.GetUint64("MONGODB_MAX_POOL_SIZE"),
			Timeout:     time.Duration(viper.GetInt("MONGODB_TIMEOUT_MS")) * time.Millisecond,
		},
		Admin: AdminConfig{
			Key:     viper.GetString("ADMIN_KEY"),
			KeyHash: viper.GetString("ADMIN_KEY_HASH"),
		},
		Routing: RoutingConfig{
			Provider:      viper.GetString("ROUTE_PROVIDER"),
			DefaultOrigin: viper.GetString("DEFAULT_ORIGIN"),
			ORSAPIKey:     viper.GetString("ORS_API_KEY"),
			ORSBaseURL:    viper.GetString("ORS_BASE_URL"),
			ORSTimeout:    time.Duration(viper.GetInt("ORS_TIMEOUT_SEC")) * time.Second,
			SampleCount:   viper.GetInt("ORS_SAMPLE_COUNT"),
		},
		Redis: RedisConfig{
			URL:      viper.GetString("REDIS_URL"),
			CacheTTL: time.Duration(viper.GetInt("TRACKING_CACHE_TTL_SEC")) * time.Second,
		},
		MQTT: MQTTConfig{
			Enabled:  viper.GetBool("MQTT_ENABLED"),
			Broker:   viper.GetString("MQTT_BROKER"),
			ClientID: viper.GetString("MQTT_CLIENT_ID"),
			Username: viper.GetString("MQTT_USERNAME"),
			Password: viper.GetString("MQTT_PASSWORD"),
			Topic:    viper.GetString("MQTT_TOPIC"),
			QoS:      byte(viper.GetUint("MQTT_QOS")),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Admin.Key == "" && c.Admin.KeyHash == "" {
		return errors.New("ADMIN_KEY or ADMIN_KEY_HASH must be set")
	}
	switch c.Store.Driver {
	case "mongo", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Routing.Provider {
	case "static":
	case "ors":
		if c.Routing.ORSAPIKey == "" {
			return errors.New("ORS_API_KEY is required when ROUTE_PROVIDER=ors")
		}
	default:
		return fmt.Errorf("unsupported ROUTE_PROVIDER %q", c.Routing.Provider)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
