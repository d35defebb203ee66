package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
	Issuer    string        `mapstructure:"issuer"`
}

type StripeConfig struct {
	SecretKey   string `mapstructure:"secretKey"`
	FrontendURL string `mapstructure:"frontendURL"`
	ProductName string `mapstructure:"productName"`
	Currency    string `mapstructure:"currency"`
	UnitAmount  int64  `mapstructure:"unitAmount"`
}

type RazorpayConfig struct {
	KeyID     string `mapstructure:"keyID"`
	KeySecret string `mapstructure:"keySecret"`
	Currency  string `mapstructure:"currency"`
}

type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Password string `mapstructure:"password"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	DB       string `mapstructure:"db"`
	SSLMODE  string `mapstructure:"SSLMODE"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		OutboundTimeout time.Duration `mapstructure:"outboundTimeout"`
		AllowedOrigins  []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	Metrics struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Storage struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"storage"`
	Repositories struct {
		Mongo    MongoConfig    `mapstructure:"mongo"`
		Postgres PostgresConfig `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT    JWTConfig `mapstructure:"jwt"`
	Google struct {
		ClientID string `mapstructure:"clientID"`
	} `mapstructure:"google"`
	Payments struct {
		Stripe   StripeConfig   `mapstructure:"stripe"`
		Razorpay RazorpayConfig `mapstructure:"razorpay"`
	} `mapstructure:"payments"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"mode":                        "APP_ENV",
	"server.HTTPPort":             "PORT",
	"storage.driver":              "STORAGE_DRIVER",
	"repositories.mongo.uri":      "MONGO_URI",
	"repositories.postgres.url":   "DATABASE_URL",
	"jwt.secretKey":               "JWT_SECRET",
	"google.clientID":             "GOOGLE_CLIENT_ID",
	"payments.stripe.secretKey":   "STRIPE_SECRET_KEY",
	"payments.stripe.frontendURL": "FRONTEND_URL",
	"payments.razorpay.keyID":     "RAZORPAY_KEY_ID",
	"payments.razorpay.keySecret": "RAZORPAY_SECRET",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt secret is not configured (set JWT_SECRET)")
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("jwt token TTL must be positive")
	}
	if c.Server.Timeout <= 0 {
		return errors.New("server HTTPTimeout must be positive")
	}
	switch c.Storage.Driver {
	case StorageMongo:
		if c.Repositories.Mongo.URI == "" {
			return errors.New("mongo storage selected but MONGO_URI is empty")
		}
	case StoragePostgres:
		if c.Repositories.Postgres.URL == "" && c.Repositories.Postgres.Host == "" {
			return errors.New("postgres storage selected but no connection settings are present")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// PostgresURL returns DATABASE_URL when set, otherwise builds the URL from the
// individual settings.
func (c *Config) PostgresURL() string {
	pg := c.Repositories.Postgres
	if pg.URL != "" {
		return pg.URL
	}
	sslmode := pg.SSLMODE
	if sslmode == "" {
		sslmode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslmode)
	query.Set("timezone", "utc")

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     fmt.Sprintf("%s:%s", pg.Host, pg.Port),
		Path:     pg.DB,
		RawQuery: query.Encode(),
	}
	return connURL.String()
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Mode == "" || c.Mode == "development"
}
