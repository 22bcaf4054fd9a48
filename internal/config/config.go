package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Billing    BillingConfig    `mapstructure:"billing" validate:"required"`
	Enrollment EnrollmentConfig `mapstructure:"enrollment" validate:"required"`
	Plans      PlansConfig      `mapstructure:"plans"`
	Activation ActivationConfig `mapstructure:"activation" validate:"required"`
	Webhook    Webhook          `mapstructure:"webhook"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address" validate:"required"`
	Port         string        `mapstructure:"port"`
	ClientURL    string        `mapstructure:"client_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// StripeConfig holds the gateway credentials. They are not required at
// startup; requests fail with a misconfiguration error while they are unset.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	LiveMode      bool   `mapstructure:"live_mode"`
}

type BillingConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
	Currency string `mapstructure:"currency" validate:"required,len=3"`
}

type EnrollmentConfig struct {
	CustomerPolicy types.CustomerPolicy `mapstructure:"customer_policy" validate:"required,oneof=create reuse"`
}

// PlansConfig overrides the built-in plan catalog when non-empty
type PlansConfig struct {
	Live []PlanEntry `mapstructure:"live" validate:"dive"`
	Test []PlanEntry `mapstructure:"test" validate:"dive"`
}

type PlanEntry struct {
	Label    string `mapstructure:"label" validate:"required"`
	PriceID  string `mapstructure:"price_id" validate:"required"`
	Amount   int64  `mapstructure:"amount" validate:"gt=0"`
	Currency string `mapstructure:"currency"`
}

type ActivationConfig struct {
	// Deferred acknowledges checkout webhooks before the subscription is
	// created and finishes provisioning on the activation queue.
	Deferred        bool          `mapstructure:"deferred"`
	Topic           string        `mapstructure:"topic" validate:"required"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ProcessedTTL    time.Duration `mapstructure:"processed_ttl"`
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func NewConfig() (*Configuration, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lessonpay")

	// Set up environment variables support
	v.SetEnvPrefix("ENROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// PORT wins over server.address, as on the hosting platforms that set it
	if config.Server.Port != "" {
		config.Server.Address = ":" + config.Server.Port
	}
	config.Server.ClientURL = strings.TrimRight(config.Server.ClientURL, "/")

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("invalid billing timezone %q: %w", c.Billing.Timezone, err)
	}
	return nil
}

// PlanMode returns the catalog selected by the gateway live-mode flag
func (c Configuration) PlanMode() types.PlanMode {
	return types.PlanModeFromLiveFlag(c.Stripe.LiveMode)
}

// Location returns the billing timezone. Validate guarantees it loads.
func (c BillingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.port", "")
	v.SetDefault("server.client_url", "")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.live_mode", false)
	v.SetDefault("billing.timezone", "America/Phoenix")
	v.SetDefault("billing.currency", "usd")
	v.SetDefault("enrollment.customer_policy", string(types.CustomerPolicyCreate))
	v.SetDefault("activation.deferred", false)
	v.SetDefault("activation.topic", "enrollment_activations")
	v.SetDefault("activation.timeout", "8s")
	v.SetDefault("activation.processed_ttl", "72h")
	v.SetDefault("activation.max_retries", 3)
	v.SetDefault("activation.initial_interval", "1s")
	v.SetDefault("activation.max_interval", "10s")
	v.SetDefault("activation.multiplier", 2.0)
	v.SetDefault("activation.max_elapsed_time", "2m")
	v.SetDefault("webhook.svix.enabled", false)
	v.SetDefault("webhook.svix.auth_token", "")
	v.SetDefault("webhook.svix.base_url", "https://api.svix.com")
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 0.1)
	v.SetDefault("cache.enabled", true)
}

// bindLegacyEnv keeps the pre-prefix variable names (STRIPE_SECRET_KEY, CLIENT_URL, ...) working
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"stripe.secret_key":     {"ENROLL_STRIPE_SECRET_KEY", "STRIPE_SECRET_KEY"},
		"stripe.webhook_secret": {"ENROLL_STRIPE_WEBHOOK_SECRET", "STRIPE_WEBHOOK_SECRET"},
		"stripe.live_mode":      {"ENROLL_STRIPE_LIVE_MODE", "STRIPE_LIVE_MODE"},
		"server.client_url":     {"ENROLL_SERVER_CLIENT_URL", "CLIENT_URL"},
		"server.port":           {"ENROLL_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Billing:    BillingConfig{Timezone: "America/Phoenix", Currency: "usd"},
		Enrollment: EnrollmentConfig{CustomerPolicy: types.CustomerPolicyCreate},
		Activation: ActivationConfig{
			Topic:        "enrollment_activations",
			Timeout:      8 * time.Second,
			ProcessedTTL: 72 * time.Hour,
		},
		Cache: CacheConfig{Enabled: true},
	}
}
