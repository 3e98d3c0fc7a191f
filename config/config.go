package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Values are layered:
// defaults, then an optional YAML file, then .env, then the environment.
type Config struct {
	Port        string   `yaml:"port"`
	Env         string   `yaml:"env"`
	CORSOrigins []string `yaml:"cors_origins"`
	UploadDir   string   `yaml:"upload_dir"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Orders   OrdersConfig   `yaml:"orders"`
	Cache    CacheConfig    `yaml:"cache"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or mysql
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AdminSecretKey string        `yaml:"admin_secret_key"`
	AdminEmail     string        `yaml:"admin_email"`
	AdminPassword  string        `yaml:"admin_password"`
}

type GatewayConfig struct {
	BaseURL       string        `yaml:"base_url"`
	KeyID         string        `yaml:"key_id"`
	KeySecret     string        `yaml:"key_secret"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Currency      string        `yaml:"currency"`
	Timeout       time.Duration `yaml:"timeout"`
}

type OrdersConfig struct {
	// StrictTransitions rejects admin status jumps outside the fulfilment graph
	StrictTransitions bool `yaml:"strict_transitions"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type EventsConfig struct {
	Driver      string `yaml:"driver"` // none, rabbitmq or nats
	RabbitMQURL string `yaml:"rabbitmq_url"`
	Exchange    string `yaml:"exchange"`
	NATSURL     string `yaml:"nats_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Port:        "3060",
		Env:         "development",
		CORSOrigins: []string{"http://localhost:5173"},
		UploadDir:   "uploads",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "quickbite.db",
		},
		Auth: AuthConfig{
			JWTSecret: "quickbite_dev_secret",
			TokenTTL:  30 * 24 * time.Hour,
		},
		Gateway: GatewayConfig{
			BaseURL:  "https://api.razorpay.com/v1",
			Currency: "INR",
			Timeout:  10 * time.Second,
		},
		Cache: CacheConfig{TTL: 5 * time.Minute},
		Events: EventsConfig{
			Driver:   "none",
			Exchange: "quickbite.orders",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty; CONFIG_FILE is used then.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Env, "APP_ENV")
	setString(&c.UploadDir, "UPLOAD_DIR")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.AdminSecretKey, "ADMIN_SECRET_KEY")
	setString(&c.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&c.Auth.AdminPassword, "ADMIN_PASSWORD")

	setString(&c.Gateway.BaseURL, "RAZORPAY_BASE_URL")
	setString(&c.Gateway.KeyID, "RAZORPAY_KEY_ID")
	setString(&c.Gateway.KeySecret, "RAZORPAY_KEY_SECRET")
	setString(&c.Gateway.WebhookSecret, "RAZORPAY_WEBHOOK_SECRET")
	setString(&c.Gateway.Currency, "CURRENCY")

	if err := setBool(&c.Orders.StrictTransitions, "ORDER_STRICT_TRANSITIONS"); err != nil {
		return err
	}

	setString(&c.Cache.RedisAddr, "REDIS_ADDR")

	setString(&c.Events.Driver, "EVENTS_DRIVER")
	setString(&c.Events.RabbitMQURL, "RABBITMQ_URL")
	setString(&c.Events.Exchange, "EVENTS_EXCHANGE")
	setString(&c.Events.NATSURL, "NATS_URL")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	for key, dst := range map[string]*time.Duration{
		"JWT_TTL":         &c.Auth.TokenTTL,
		"GATEWAY_TIMEOUT": &c.Gateway.Timeout,
		"CACHE_TTL":       &c.Cache.TTL,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether the service runs with production cookies and checks
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects configurations that cannot run
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Events.Driver {
	case "", "none", "rabbitmq", "nats":
	default:
		return fmt.Errorf("unsupported EVENTS_DRIVER %q", c.Events.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == Default().Auth.JWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.Gateway.KeyID == "" || c.Gateway.KeySecret == "" {
			return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set in production")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return nil
	}
	// bare integers are seconds
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = time.Duration(secs) * time.Second
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
