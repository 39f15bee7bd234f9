package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: values that differ between environments (port, DB, gateway
//   credentials) and anything security sensitive
// - default: values common across environments (timeouts, windows, rates)
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig
	Booking   BookingConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// GatewayConfig holds the mobile-money (daraja) credentials. The passkey is
// combined with the shortcode and a timestamp per request; it is never sent
// as-is.
type GatewayConfig struct {
	BaseURL        string        `envconfig:"MPESA_BASE_URL" default:"https://sandbox.safaricom.co.ke"`
	ConsumerKey    string        `envconfig:"MPESA_CONSUMER_KEY" required:"true"`
	ConsumerSecret string        `envconfig:"MPESA_CONSUMER_SECRET" required:"true"`
	ShortCode      string        `envconfig:"MPESA_BUSINESS_SHORTCODE" default:"174379"`
	Passkey        string        `envconfig:"MPESA_PASSKEY" required:"true"`
	CallbackURL    string        `envconfig:"MPESA_CALLBACK_URL" required:"true"`
	HTTPTimeout    time.Duration `envconfig:"MPESA_HTTP_TIMEOUT" default:"30s"`
	PollInterval   time.Duration `envconfig:"MPESA_POLL_INTERVAL" default:"3s"`
	PollMaxElapsed time.Duration `envconfig:"MPESA_POLL_MAX_ELAPSED" default:"2m"`
}

type RateLimitConfig struct {
	Backend        string        `envconfig:"RATE_LIMIT_BACKEND" default:"memory"` // memory | redis
	AuthMax        int           `envconfig:"RATE_LIMIT_AUTH_MAX" default:"5"`
	AuthWindow     time.Duration `envconfig:"RATE_LIMIT_AUTH_WINDOW" default:"15m"`
	PaymentsMax    int           `envconfig:"RATE_LIMIT_PAYMENTS_MAX" default:"30"`
	PaymentsWindow time.Duration `envconfig:"RATE_LIMIT_PAYMENTS_WINDOW" default:"1m"`
}

type BookingConfig struct {
	ProvisionalTTL time.Duration `envconfig:"BOOKING_PROVISIONAL_TTL" default:"15m"`
	SweepInterval  time.Duration `envconfig:"BOOKING_SWEEP_INTERVAL" default:"1m"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,X-RateLimit-Remaining,X-RateLimit-Reset"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"24h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Gateway: GatewayConfig{
			BaseURL:        "http://localhost:9999",
			ConsumerKey:    "test-key",
			ConsumerSecret: "test-secret",
			ShortCode:      "174379",
			Passkey:        "test-passkey",
			CallbackURL:    "http://localhost:8889/api/payments/callback",
			HTTPTimeout:    5 * time.Second,
			PollInterval:   10 * time.Millisecond,
			PollMaxElapsed: 100 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Backend:        "memory",
			AuthMax:        5,
			AuthWindow:     15 * time.Minute,
			PaymentsMax:    30,
			PaymentsWindow: time.Minute,
		},
		Booking: BookingConfig{
			ProvisionalTTL: 15 * time.Minute,
			SweepInterval:  time.Minute,
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:   "test-secret-key-for-e2e",
			Duration: 24 * time.Hour,
		},
	}
}
