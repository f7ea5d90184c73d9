package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gogotex/widgets/internal/cosmos"
	"github.com/gogotex/widgets/internal/widget/service"
)

// Store backends.
const (
	BackendCosmos = "cosmos"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Cosmos    cosmos.Config
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	OIDC      OIDCConfig
	Widgets   WidgetsConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	Backend    string
	Database   string
	Container  string
	Throughput int32
	Timeout    time.Duration
}

type MongoDBConfig struct {
	URI string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled  bool
	RPS      float64
	Burst    int
	UseRedis bool
	Window   time.Duration
}

type OIDCConfig struct {
	Issuer   string
	ClientID string
}

type WidgetsConfig struct {
	UpdateMode    service.UpdateMode
	UpdateRetries int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORE_BACKEND", BackendCosmos)
	v.SetDefault("STORE_DATABASE", "WidgetDb")
	v.SetDefault("STORE_CONTAINER", "Widgets")
	v.SetDefault("STORE_THROUGHPUT", 400)
	v.SetDefault("STORE_TIMEOUT", 10)

	v.SetDefault("COSMOS_AUTH", cosmos.AuthDefault)

	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	v.SetDefault("WIDGETS_UPDATE_MODE", string(service.UpdateOptimistic))
	v.SetDefault("WIDGETS_UPDATE_RETRIES", service.DefaultUpdateRetries)
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			LogLevel:     v.GetString("LOG_LEVEL"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
		},
		Store: StoreConfig{
			Backend:    v.GetString("STORE_BACKEND"),
			Database:   v.GetString("STORE_DATABASE"),
			Container:  v.GetString("STORE_CONTAINER"),
			Throughput: v.GetInt32("STORE_THROUGHPUT"),
			Timeout:    time.Duration(v.GetInt("STORE_TIMEOUT")) * time.Second,
		},
		Cosmos: cosmos.Config{
			Endpoint:     v.GetString("COSMOS_ENDPOINT"),
			Auth:         v.GetString("COSMOS_AUTH"),
			Key:          v.GetString("COSMOS_KEY"),
			TenantID:     v.GetString("AZURE_TENANT_ID"),
			ClientID:     v.GetString("AZURE_CLIENT_ID"),
			ClientSecret: v.GetString("AZURE_CLIENT_SECRET"),
		},
		MongoDB: MongoDBConfig{
			URI: v.GetString("MONGODB_URI"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:      v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    v.GetInt("RATE_LIMIT_BURST"),
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		OIDC: OIDCConfig{
			Issuer:   v.GetString("OIDC_ISSUER"),
			ClientID: v.GetString("OIDC_CLIENT_ID"),
		},
		Widgets: WidgetsConfig{
			UpdateRetries: v.GetInt("WIDGETS_UPDATE_RETRIES"),
		},
	}

	mode, ok := service.ParseUpdateMode(v.GetString("WIDGETS_UPDATE_MODE"))
	if !ok {
		return nil, fmt.Errorf("unknown WIDGETS_UPDATE_MODE %q", v.GetString("WIDGETS_UPDATE_MODE"))
	}
	cfg.Widgets.UpdateMode = mode

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendCosmos:
		// local default: talk to the emulator when nothing else is configured
		if c.Cosmos.Endpoint == "" && c.IsDevelopment() && (c.Cosmos.Auth == cosmos.AuthDefault || c.Cosmos.Auth == "") {
			c.Cosmos.Auth = cosmos.AuthEmulator
		}
		if c.Cosmos.Endpoint == "" && c.Cosmos.Auth != cosmos.AuthEmulator {
			return errors.New("COSMOS_ENDPOINT is required for the cosmos backend")
		}
		if c.Cosmos.Auth == cosmos.AuthKey && c.Cosmos.Key == "" {
			return errors.New("COSMOS_KEY is required when COSMOS_AUTH=key")
		}
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI is required for the mongo backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.RateLimit.Enabled && c.RateLimit.UseRedis && c.Redis.Host == "" {
		return errors.New("REDIS_HOST is required when RATE_LIMIT_USE_REDIS is set")
	}
	return nil
}
