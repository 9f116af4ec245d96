package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// Values come from an optional YAML file and are overridden by environment variables.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address the HTTP server will listen on. When empty, Port is used on all interfaces.
		Addr string `env:"HTTP_ADDR" yaml:"addr"`
		// Port is the TCP port used when Addr is not set
		Port int `env:"PORT" env-default:"3000" yaml:"port"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// StaticDir is an optional directory served at the root path (landing page assets)
		StaticDir string `env:"HTTP_STATIC_DIR" yaml:"staticDir"`
		// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP identify the client for rate limiting.
		// Only enable it behind a proxy that overwrites these headers.
		TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" env-default:"false" yaml:"trustProxyHeaders"`
	} `yaml:"http"`

	// Brevo contains the contacts and transactional mail provider settings
	Brevo struct {
		// APIKey authenticates against the Brevo API
		APIKey string `env:"BREVO_API_KEY" yaml:"apiKey"`
		// ListID is the contact list the waitlist signs people up to
		ListID int64 `env:"BREVO_LIST_ID" yaml:"listId"`
		// SenderEmail is the From address of the confirmation email
		SenderEmail string `env:"BREVO_SENDER_EMAIL" yaml:"senderEmail"`
		// SenderName is the From display name of the confirmation email
		SenderName string `env:"BREVO_SENDER_NAME" yaml:"senderName"`
		// BaseURL is the API root
		BaseURL string `env:"BREVO_BASE_URL" env-default:"https://api.brevo.com/v3" yaml:"baseUrl"`
		// Timeout bounds every single call to the API
		Timeout time.Duration `env:"BREVO_TIMEOUT" env-default:"10s" yaml:"timeout"`
	} `yaml:"brevo"`

	// Waitlist contains settings of the signup core
	Waitlist struct {
		// CountCacheTTL is how long a fetched subscriber count is served without asking Brevo again
		CountCacheTTL time.Duration `env:"WAITLIST_COUNT_CACHE_TTL" env-default:"60s" yaml:"countCacheTTL"`
		// TemplatePath is the HTML template of the confirmation email, read on every send
		TemplatePath string `env:"WAITLIST_TEMPLATE_PATH" env-default:"templates/confirmation-email.html" yaml:"templatePath"` //nolint: lll
	} `yaml:"waitlist"`

	// RateLimit configures the per-client limit on the signup route
	RateLimit struct {
		// Max is the number of signup requests allowed per client and window
		Max int `env:"RATE_LIMIT_MAX" env-default:"5" yaml:"max"`
		// Window is the length of a rate limit window
		Window time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"15m" yaml:"window"`
		// CleanupInterval is how often expired in-memory windows are dropped
		CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"1m" yaml:"cleanupInterval"`
	} `yaml:"rateLimit"`

	// Redis optionally backs the rate limiter so several instances share counters
	Redis struct {
		// Addr enables the redis store when set (host:port)
		Addr string `env:"REDIS_ADDR" yaml:"addr"`
		// Password for redis authentication
		Password string `env:"REDIS_PASSWORD" yaml:"password"`
		// DB is the redis logical database
		DB int `env:"REDIS_DB" env-default:"0" yaml:"db"`
	} `yaml:"redis"`

	// Mail configures the background confirmation dispatcher
	Mail struct {
		// Workers is the number of goroutines sending confirmation emails
		Workers int `env:"MAIL_WORKERS" env-default:"2" yaml:"workers"`
		// QueueSize is the number of confirmations that may wait for a worker
		QueueSize int `env:"MAIL_QUEUE_SIZE" env-default:"100" yaml:"queueSize"`
		// RatePerSecond throttles outgoing emails
		RatePerSecond float64 `env:"MAIL_RATE_PER_SECOND" env-default:"5" yaml:"ratePerSecond"`
		// Burst is the token bucket size of the throttle
		Burst int `env:"MAIL_BURST" env-default:"5" yaml:"burst"`
		// Timeout bounds a single confirmation send, including template rendering
		Timeout time.Duration `env:"MAIL_TIMEOUT" env-default:"15s" yaml:"timeout"`
	} `yaml:"mail"`

	// JWT contains the keys guarding operator endpoints
	JWT struct {
		// PublicKey (PEM) verifies operator tokens; operator endpoints are disabled when empty
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey (PEM) signs operator tokens with the jwt command
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// ListenAddr returns HTTP.Addr, falling back to ":<Port>".
func (c *Config) ListenAddr() string {
	if c.HTTP.Addr != "" {
		return c.HTTP.Addr
	}

	return ":" + strconv.Itoa(c.HTTP.Port)
}

// ValidateBrevo checks the settings the signup service cannot run without.
func (c *Config) ValidateBrevo() error {
	var errs []error
	if c.Brevo.APIKey == "" {
		errs = append(errs, errors.New("BREVO_API_KEY is not set"))
	}
	if c.Brevo.ListID <= 0 {
		errs = append(errs, errors.New("BREVO_LIST_ID must be a positive list identifier"))
	}
	if c.Brevo.SenderEmail == "" {
		errs = append(errs, errors.New("BREVO_SENDER_EMAIL is not set"))
	}
	if c.Brevo.SenderName == "" {
		errs = append(errs, errors.New("BREVO_SENDER_NAME is not set"))
	}

	return errors.Join(errs...)
}

// Load receives the path for yaml config file and returns a filled Config struct.
// A missing file is not an error: configuration is then read from the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(configPath)
	switch {
	case configPath != "" && statErr == nil:
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	case configPath == "" || errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("could not stat config file: %w", statErr)
	}

	return &cfg, nil
}
