package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Gateway       GatewayConfig       `mapstructure:"cmi"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// GatewayConfig carries the CMI merchant credentials and redirect targets.
// StoreKey is the shared secret for request/callback signatures.
type GatewayConfig struct {
	ClientID    string `mapstructure:"client_id"`
	StoreKey    string `mapstructure:"store_key"`
	StoreType   string `mapstructure:"store_type"`
	OkURL       string `mapstructure:"ok_url"`
	FailURL     string `mapstructure:"fail_url"`
	Language    string `mapstructure:"language"`
	Currency    string `mapstructure:"currency"`
	OrderPrefix string `mapstructure:"order_prefix"`
}

// PricingConfig maps payment type keys to fees. Values are decimal strings so
// the table can live in config.yml without float rounding.
type PricingConfig struct {
	Currency string            `mapstructure:"currency"`
	Fees     map[string]string `mapstructure:"fees"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("cmi config: %v", err))
	}

	if err := c.Pricing.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("pricing config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *GatewayConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("client_id is required")
	}
	if c.StoreKey == "" {
		return errors.New("store_key is required")
	}
	for name, target := range map[string]string{"ok_url": c.OkURL, "fail_url": c.FailURL} {
		if target == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(target); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// StoreTypeOrDefault returns the configured store type, defaulting to the
// 3-D Secure flow the gateway expects.
func (c *GatewayConfig) StoreTypeOrDefault() string {
	if c.StoreType == "" {
		return "3D_PAY"
	}
	return c.StoreType
}

func (c *PricingConfig) Validate() error {
	for key, fee := range c.Fees {
		d, err := decimal.NewFromString(fee)
		if err != nil {
			return fmt.Errorf("fee for %s is not a decimal: %w", key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("fee for %s is negative", key)
		}
	}
	return nil
}

// FeeTable parses the configured fees into decimals. Validate must have
// passed; unparseable entries are skipped here.
func (c *PricingConfig) FeeTable() map[string]decimal.Decimal {
	table := make(map[string]decimal.Decimal, len(c.Fees))
	for key, fee := range c.Fees {
		if d, err := decimal.NewFromString(fee); err == nil {
			table[key] = d
		}
	}
	return table
}
