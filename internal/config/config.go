package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	App struct {
		ENV      string
		Timezone string
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host string
		Port string
	}

	Auth struct {
		Secret   string
		TokenTTL time.Duration
	}

	Mongo struct {
		URI        string
		Database   string
		Collection string
	}

	S3 struct {
		RootUser     string
		RootPassword string
		Bucket       string
		Region       string
		BaseEndpoint string
	}

	Pricing struct {
		Rewind        int64
		ResetDislikes int64
		InstantMatch  int64
		Rematch       int64
		StartingCoins int64
	}

	Discovery struct {
		Limit           int
		BoostLimit      int
		FallbackLimit   int
		DefaultDistance float64
		BoostDuration   time.Duration
	}
}

// New builds the config from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "swipe_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", "production")
	cfg.App.Timezone = getEnvDefault("APP_TIMEZONE", "Local")

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.Driver == "sqlite" {
		cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "swipe.db")
	} else if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "swipe")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC (real-time relay)
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP API
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Auth
	cfg.Auth.Secret = getEnvDefault("JWT_SECRET", "secretKey")
	cfg.Auth.TokenTTL = time.Duration(getEnvInt("JWT_TTL_HOURS", 24*30)) * time.Hour

	// Mongo (optional message store)
	cfg.Mongo.URI = os.Getenv("MONGO_URI")
	cfg.Mongo.Database = getEnvDefault("MONGO_DB", "swipe")
	cfg.Mongo.Collection = getEnvDefault("MONGO_COLLECTION", "messages")

	// S3-compatible attachment storage
	cfg.S3.RootUser = getEnvDefault("S3_ROOT_USER", "admin")
	cfg.S3.RootPassword = getEnvDefault("S3_ROOT_PASSWORD", "secretpassword")
	cfg.S3.Bucket = getEnvDefault("S3_BUCKET", "chat-media")
	cfg.S3.Region = getEnvDefault("S3_REGION", "us-east-1")
	cfg.S3.BaseEndpoint = getEnvDefault("S3_BASE_ENDPOINT", "http://127.0.0.1:9000/")

	// Coin prices
	cfg.Pricing.Rewind = int64(getEnvInt("PRICE_REWIND", 50))
	cfg.Pricing.ResetDislikes = int64(getEnvInt("PRICE_RESET_DISLIKES", 100))
	cfg.Pricing.InstantMatch = int64(getEnvInt("PRICE_INSTANT_MATCH", 200))
	cfg.Pricing.Rematch = int64(getEnvInt("PRICE_REMATCH", 150))
	cfg.Pricing.StartingCoins = int64(getEnvInt("STARTING_COINS", 1000))

	// Discovery
	cfg.Discovery.Limit = getEnvInt("DISCOVERY_LIMIT", 20)
	cfg.Discovery.BoostLimit = getEnvInt("DISCOVERY_BOOST_LIMIT", 5)
	cfg.Discovery.FallbackLimit = getEnvInt("DISCOVERY_FALLBACK_LIMIT", 20)
	cfg.Discovery.DefaultDistance = float64(getEnvInt("DISCOVERY_DISTANCE_KM", 50))
	cfg.Discovery.BoostDuration = time.Duration(getEnvInt("BOOST_MINUTES", 30)) * time.Minute

	return cfg
}

// Location resolves App.Timezone, falling back to the server's local zone.
func (c *Config) Location() *time.Location {
	if c.App.Timezone == "" || strings.EqualFold(c.App.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
