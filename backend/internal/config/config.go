package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"todo-gpt/backend/internal/utils"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors"`
}

type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	Environment     string        `toml:"environment"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"`
	URL             string        `toml:"url"`
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	User            string        `toml:"user"`
	Password        string        `toml:"password"`
	Name            string        `toml:"name"`
	SSLMode         string        `toml:"sslmode"`
	Path            string        `toml:"path"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `toml:"conn_max_idle_time"`
	LogLevel        string        `toml:"log_level"`
	AutoMigrate     bool          `toml:"auto_migrate"`
}

// RedisConfig is optional; an empty Host disables Redis.
type RedisConfig struct {
	Host         string        `toml:"host"`
	Port         int           `toml:"port"`
	Password     string        `toml:"password"`
	DB           int           `toml:"db"`
	PoolSize     int           `toml:"pool_size"`
	MinIdleConns int           `toml:"min_idle_conns"`
	MaxRetries   int           `toml:"max_retries"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// RateLimitConfig is opt-in; the API applies no backpressure unless Enabled.
type RateLimitConfig struct {
	Enabled        bool `toml:"enabled"`
	RequestsPerMin int  `toml:"requests_per_min"`
	BurstSize      int  `toml:"burst_size"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DefaultAllowedOrigins are the origins the GPT action frontend is served from.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8001",
	"http://backend:8001",
	"http://frontend:3000",
	"https://web.wania.xyz",
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Environment:     "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "todos",
			SSLMode:         "disable",
			Path:            "todos.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
			LogLevel:        "warn",
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			Port:         6379,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:        false,
			RequestsPerMin: 120,
			BurstSize:      20,
		},
		CORS: CORSConfig{
			AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		},
	}
}

// LoadConfig layers defaults, the optional TOML file at path, a .env file in
// the working directory, and finally the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  Could not load .env file: %v", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = utils.GetEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = utils.GetEnvAsInt("PORT", c.Server.Port)
	c.Server.Environment = utils.GetEnv("APP_ENV", c.Server.Environment)
	c.Server.ReadTimeout = utils.GetEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = utils.GetEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = utils.GetEnvAsDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = utils.GetEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = utils.GetEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = utils.GetEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = utils.GetEnv("DB_HOST", c.Database.Host)
	c.Database.Port = utils.GetEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = utils.GetEnv("DB_USER", c.Database.User)
	c.Database.Password = utils.GetEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = utils.GetEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = utils.GetEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Path = utils.GetEnv("DB_PATH", c.Database.Path)
	c.Database.MaxOpenConns = utils.GetEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = utils.GetEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = utils.GetEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.ConnMaxIdleTime = utils.GetEnvAsDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime)
	c.Database.LogLevel = utils.GetEnv("DB_LOG_LEVEL", c.Database.LogLevel)
	c.Database.AutoMigrate = utils.GetEnvAsBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Redis.Host = utils.GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = utils.GetEnvAsInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = utils.GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = utils.GetEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = utils.GetEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize)

	c.RateLimit.Enabled = utils.GetEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMin = utils.GetEnvAsInt("RATE_LIMIT_REQUESTS_PER_MIN", c.RateLimit.RequestsPerMin)
	c.RateLimit.BurstSize = utils.GetEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)

	c.CORS.AllowedOrigins = utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" && c.Database.Host == "" {
			return errors.New("database: either url or host is required for postgres")
		}
	case "sqlite":
		if c.Database.URL == "" && c.Database.Path == "" {
			return errors.New("database: path is required for sqlite")
		}
	default:
		return fmt.Errorf("database: unsupported driver %q", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMin <= 0 || c.RateLimit.BurstSize <= 0) {
		return errors.New("rate_limit: requests_per_min and burst_size must be positive")
	}
	return nil
}

// DSN returns the connection string for the configured driver. An explicit
// URL always wins.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c *Config) GetRedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}
