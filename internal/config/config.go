// Package config loads storefront settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"gopkg.in/yaml.v3"
)

// Catalog backends.
const (
	BackendLocal = "local"
	BackendMongo = "mongo"
	BackendSQL   = "sql"
	BackendSheet = "sheet"
)

// Key-value store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
	StoreMongo  = "mongo"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	Logging LoggingConfig `yaml:"logging"`
	Catalog CatalogConfig `yaml:"catalog"`
	Slides  SlidesConfig  `yaml:"slides"`
	Orders  OrdersConfig  `yaml:"orders"`
	Store   StoreConfig   `yaml:"store"`
	Mongo   MongoConfig   `yaml:"mongo"`
	SQL     SQLConfig     `yaml:"sql"`
	Redis   RedisConfig   `yaml:"redis"`
	Sheet   SheetConfig   `yaml:"sheet"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Contact ContactConfig `yaml:"contact"`
	Admin   AdminConfig   `yaml:"admin"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
}

type GRPCConfig struct {
	Port string `yaml:"port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type CatalogConfig struct {
	Backend         string          `yaml:"backend"`
	DefaultCategory domain.Category `yaml:"default_category"`
	Cache           bool            `yaml:"cache"`
	CacheTTL        time.Duration   `yaml:"cache_ttl"`
}

type SlidesConfig struct {
	// Backend defaults to the catalog backend; a read-only catalog keeps
	// slides in the local store.
	Backend string `yaml:"backend"`
}

type OrdersConfig struct {
	Backend string `yaml:"backend"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type SQLConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SheetConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// GroupID is a prefix; each replica consumes under GroupID-<hostname>.
	GroupID string `yaml:"group_id"`
}

type ContactConfig struct {
	RelayURL string        `yaml:"relay_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AdminConfig struct {
	Users      []AdminUser   `yaml:"users"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// AdminUser holds a bcrypt hash, never a clear-text password.
type AdminUser struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		GRPC:    GRPCConfig{Port: "50051"},
		Logging: LoggingConfig{Level: "info", Encoding: "json"},
		Catalog: CatalogConfig{
			Backend:         BackendLocal,
			DefaultCategory: domain.DefaultCategory,
			CacheTTL:        5 * time.Minute,
		},
		Orders:  OrdersConfig{Backend: BackendSQL},
		Store:   StoreConfig{Backend: StoreSQL},
		Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "storefront"},
		SQL:     SQLConfig{Driver: "sqlite", DSN: "./storefront.db"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Sheet:   SheetConfig{Timeout: 10 * time.Second},
		Kafka:   KafkaConfig{Topic: "checkout-completed", GroupID: "storefront-cart"},
		Contact: ContactConfig{Timeout: 10 * time.Second},
		Admin:   AdminConfig{SessionTTL: 12 * time.Hour},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) applyEnv() error {
	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.GRPC.Port = getEnv("GRPC_PORT", c.GRPC.Port)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Encoding = getEnv("LOG_ENCODING", c.Logging.Encoding)
	c.Catalog.Backend = getEnv("CATALOG_BACKEND", c.Catalog.Backend)
	c.Catalog.DefaultCategory = domain.Category(getEnv("CATALOG_DEFAULT_CATEGORY", string(c.Catalog.DefaultCategory)))
	c.Slides.Backend = getEnv("SLIDES_BACKEND", c.Slides.Backend)
	c.Orders.Backend = getEnv("ORDERS_BACKEND", c.Orders.Backend)
	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB_NAME", c.Mongo.Database)
	c.SQL.Driver = getEnv("SQL_DRIVER", c.SQL.Driver)
	c.SQL.DSN = getEnv("SQL_DSN", c.SQL.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Sheet.URL = getEnv("SHEET_URL", c.Sheet.URL)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Contact.RelayURL = getEnv("CONTACT_RELAY_URL", c.Contact.RelayURL)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if cache := getEnv("CATALOG_CACHE", ""); cache != "" {
		enabled, err := strconv.ParseBool(cache)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_CACHE: %w", err)
		}
		c.Catalog.Cache = enabled
	}
	if email := getEnv("ADMIN_EMAIL", ""); email != "" {
		c.Admin.Users = append(c.Admin.Users, AdminUser{
			Email:        email,
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		})
	}
	return nil
}

// SlidesBackend resolves the slide backend from the catalog one when unset.
func (c *Config) SlidesBackend() string {
	if c.Slides.Backend != "" {
		return c.Slides.Backend
	}
	if c.Catalog.Backend == BackendSheet {
		return BackendLocal
	}
	return c.Catalog.Backend
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Catalog.Backend {
	case BackendLocal, BackendMongo, BackendSQL:
	case BackendSheet:
		if c.Sheet.URL == "" {
			errs = append(errs, errors.New("sheet.url is required for the sheet catalog backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend))
	}
	switch c.SlidesBackend() {
	case BackendLocal, BackendMongo, BackendSQL:
	default:
		errs = append(errs, fmt.Errorf("unknown slides backend %q", c.SlidesBackend()))
	}
	switch c.Orders.Backend {
	case BackendMongo, BackendSQL:
	default:
		errs = append(errs, fmt.Errorf("unknown orders backend %q", c.Orders.Backend))
	}
	switch c.Store.Backend {
	case StoreMemory, StoreSQL, StoreMongo:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Catalog.Cache && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when the catalog cache is enabled"))
	}
	if c.UsesSQL() {
		if c.SQL.Driver != "sqlite" && c.SQL.Driver != "postgres" {
			errs = append(errs, fmt.Errorf("unknown sql driver %q", c.SQL.Driver))
		}
		if c.SQL.DSN == "" {
			errs = append(errs, errors.New("sql.dsn is required"))
		}
	}
	if c.UsesMongo() && c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	if !c.Catalog.DefaultCategory.Valid() {
		errs = append(errs, fmt.Errorf("unknown default category %q", c.Catalog.DefaultCategory))
	}
	for _, u := range c.Admin.Users {
		if u.Email == "" || u.PasswordHash == "" {
			errs = append(errs, errors.New("admin users need an email and a password hash"))
			break
		}
	}

	return errors.Join(errs...)
}

func (c *Config) UsesSQL() bool {
	return c.Catalog.Backend == BackendSQL || c.SlidesBackend() == BackendSQL ||
		c.Orders.Backend == BackendSQL || c.Store.Backend == StoreSQL
}

func (c *Config) UsesMongo() bool {
	return c.Catalog.Backend == BackendMongo || c.SlidesBackend() == BackendMongo ||
		c.Orders.Backend == BackendMongo || c.Store.Backend == StoreMongo
}

func (c *Config) UsesRedis() bool {
	return c.Store.Backend == StoreRedis || c.Catalog.Cache
}
