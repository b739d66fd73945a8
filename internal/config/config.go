package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 8000
	defaultEnv      = "development"
	defaultMongoURI = "mongodb://localhost:27017"
	defaultMongoDB  = "solstice"
	defaultRedisURL = "redis://localhost:6379/0"
	defaultCompany  = "Solstice"
	defaultProduct  = "Solstice Core"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"` // "development" | "production"
	PublicURL      string   `yaml:"public_url"`
	FrontendURL    string   `yaml:"frontend_url"`
	CookieDomain   string   `yaml:"cookie_domain"`
	MongoURI       string   `yaml:"mongo_uri"`
	MongoDB        string   `yaml:"mongo_db"`
	RedisURL       string   `yaml:"redis_url"`
	JWTSecret      string   `yaml:"jwt_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Company string `yaml:"company"`
	Product string `yaml:"product"`

	Cluster ClusterConfig     `yaml:"cluster"`
	Mail    MailConfig        `yaml:"mail"`
	S3      S3Config          `yaml:"s3"`
	Google  GoogleOAuthConfig `yaml:"google_oauth"`
	Stripe  StripeConfig      `yaml:"stripe"`
}

type ClusterConfig struct {
	Enable  bool `yaml:"enable"`
	Workers int  `yaml:"workers"` // 0 = one per CPU
}

type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	SMTPHost  string `yaml:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port"`
	SMTPUser  string `yaml:"smtp_user"`
	SMTPPass  string `yaml:"smtp_pass"`
	From      string `yaml:"from"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url"`
	PathStyle       bool   `yaml:"path_style"`
}

type GoogleOAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type StripeConfig struct {
	SecretKey           string  `yaml:"secret_key"`
	WebhookSecret       string  `yaml:"webhook_secret"`
	SubscriptionPriceID string  `yaml:"subscription_price_id"`
	PaymentMode         string  `yaml:"payment_mode"` // "subscription" | "credit"
	CreditValue         float64 `yaml:"credit_value"` // dollars per credit
	SuccessURL          string  `yaml:"success_url"`
	CancelURL           string  `yaml:"cancel_url"`
}

// Load reads and validates the YAML config at path. Unknown keys are
// rejected so typos fail fast instead of silently using defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes config from raw YAML bytes.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.MongoURI == "" {
		c.MongoURI = defaultMongoURI
	}
	if c.MongoDB == "" {
		c.MongoDB = defaultMongoDB
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.Company == "" {
		c.Company = defaultCompany
	}
	if c.Product == "" {
		c.Product = defaultProduct
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = 587
	}
	if c.Stripe.PaymentMode == "" {
		c.Stripe.PaymentMode = "subscription"
	}
	if c.Stripe.CreditValue == 0 {
		c.Stripe.CreditValue = 1
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
}

func (c *AppConfig) validate() error {
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("config: env must be development or production, got %q", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: jwt_secret is required")
	}
	switch c.Stripe.PaymentMode {
	case "subscription", "credit":
	default:
		return fmt.Errorf("config: stripe payment_mode must be subscription or credit, got %q", c.Stripe.PaymentMode)
	}
	if c.Stripe.CreditValue <= 0 {
		return fmt.Errorf("config: stripe credit_value must be positive")
	}
	if c.Cluster.Workers < 0 {
		return fmt.Errorf("config: cluster workers cannot be negative")
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env == "development" }
