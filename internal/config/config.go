package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tutordesk/tutordesk/internal/types"
)

// Configuration is the process-wide configuration snapshot. It is built once at
// startup and handed to every component constructor.
type Configuration struct {
	Deployment   DeploymentConfig   `mapstructure:"deployment"`
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Logging      LoggingConfig      `mapstructure:"logging" validate:"required"`
	Postgres     PostgresConfig     `mapstructure:"postgres" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth" validate:"required"`
	Cron         CronConfig         `mapstructure:"cron"`
	Public       PublicConfig       `mapstructure:"public" validate:"required"`
	Tokens       TokenConfig        `mapstructure:"tokens"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
	ESign        ESignConfig        `mapstructure:"esign"`
	Automation   AutomationConfig   `mapstructure:"automation"`
	Storage      StorageConfig      `mapstructure:"storage" validate:"required"`
	Renewal      RenewalConfig      `mapstructure:"renewal"`
	HTTPClient   HTTPClientConfig   `mapstructure:"http_client"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	FluentdEnabled bool   `mapstructure:"fluentd_enabled"`
	FluentdHost    string `mapstructure:"fluentd_host"`
	FluentdPort    int    `mapstructure:"fluentd_port"`
}

type PostgresConfig struct {
	Host                   string        `mapstructure:"host" validate:"required"`
	Port                   int           `mapstructure:"port" validate:"required"`
	User                   string        `mapstructure:"user" validate:"required"`
	Password               string        `mapstructure:"password"`
	DBName                 string        `mapstructure:"dbname" validate:"required"`
	SSLMode                string        `mapstructure:"sslmode"`
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
}

// GetDSN returns the lib/pq connection string
func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type AuthConfig struct {
	// Secret is the Supabase project JWT secret used to verify admin sessions
	Secret   string         `mapstructure:"secret" validate:"required"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type SupabaseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
}

type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

type PublicConfig struct {
	// BaseURL is the public front-end origin links in emails point to
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

type TokenConfig struct {
	FormTTL     time.Duration `mapstructure:"form_ttl"`
	UploadTTL   time.Duration `mapstructure:"upload_ttl"`
	DownloadTTL time.Duration `mapstructure:"download_ttl"`
	RenewalTTL  time.Duration `mapstructure:"renewal_ttl"`
	SignedURL   time.Duration `mapstructure:"signed_url_ttl"`
}

type NotificationConfig struct {
	// Provider selects the email backend: brevo, resend or console
	Provider    string       `mapstructure:"provider" validate:"required,oneof=brevo resend console"`
	SenderName  string       `mapstructure:"sender_name"`
	SenderEmail string       `mapstructure:"sender_email" validate:"required,email"`
	SMSSender   string       `mapstructure:"sms_sender"`
	AdminEmail  string       `mapstructure:"admin_email"`
	ReviewURL   string       `mapstructure:"review_url"`
	Brevo       BrevoConfig  `mapstructure:"brevo"`
	Resend      ResendConfig `mapstructure:"resend"`
}

type BrevoConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ESignConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	DeliveryMode   string `mapstructure:"delivery_mode"`
	Timezone       string `mapstructure:"timezone"`
	SignaturePage  int    `mapstructure:"signature_page"`
	SignatureX     int    `mapstructure:"signature_x"`
	SignatureY     int    `mapstructure:"signature_y"`
	SignatureWidth int    `mapstructure:"signature_width"`
}

type AutomationConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Secret     string `mapstructure:"secret"`
}

type StorageConfig struct {
	// Provider selects the blob backend: supabase or s3
	Provider string         `mapstructure:"provider" validate:"required,oneof=supabase s3"`
	Bucket   string         `mapstructure:"bucket" validate:"required"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	S3       S3Config       `mapstructure:"s3"`
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type RenewalConfig struct {
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	Timezone         string        `mapstructure:"timezone"`
}

type HTTPClientConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// NewConfig loads .env (if present), config.yaml (if present) and TUTORDESK_* env vars
func NewConfig() (*Configuration, error) {
	// .env is optional; real deployments inject env vars directly
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TUTORDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Renewal.Timezone != "" {
		if err := types.ValidateTimezone(c.Renewal.Timezone); err != nil {
			return fmt.Errorf("invalid renewal timezone %q: %w", c.Renewal.Timezone, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.dbname", d.Postgres.DBName)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime_minutes", d.Postgres.ConnMaxLifetimeMinutes)
	v.SetDefault("postgres.connect_timeout", d.Postgres.ConnectTimeout)
	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.supabase.base_url", "")
	v.SetDefault("auth.supabase.service_key", "")
	v.SetDefault("cron.secret", "")
	v.SetDefault("public.base_url", d.Public.BaseURL)
	v.SetDefault("tokens.form_ttl", d.Tokens.FormTTL)
	v.SetDefault("tokens.upload_ttl", d.Tokens.UploadTTL)
	v.SetDefault("tokens.download_ttl", d.Tokens.DownloadTTL)
	v.SetDefault("tokens.renewal_ttl", d.Tokens.RenewalTTL)
	v.SetDefault("tokens.signed_url_ttl", d.Tokens.SignedURL)
	v.SetDefault("notification.provider", d.Notification.Provider)
	v.SetDefault("notification.sender_name", d.Notification.SenderName)
	v.SetDefault("notification.sender_email", d.Notification.SenderEmail)
	v.SetDefault("notification.sms_sender", d.Notification.SMSSender)
	v.SetDefault("notification.admin_email", "")
	v.SetDefault("notification.review_url", "")
	v.SetDefault("notification.brevo.base_url", d.Notification.Brevo.BaseURL)
	v.SetDefault("notification.brevo.api_key", "")
	v.SetDefault("notification.resend.api_key", "")
	v.SetDefault("esign.base_url", d.ESign.BaseURL)
	v.SetDefault("esign.api_key", "")
	v.SetDefault("esign.webhook_secret", "")
	v.SetDefault("esign.delivery_mode", d.ESign.DeliveryMode)
	v.SetDefault("esign.timezone", d.ESign.Timezone)
	v.SetDefault("esign.signature_page", d.ESign.SignaturePage)
	v.SetDefault("esign.signature_x", d.ESign.SignatureX)
	v.SetDefault("esign.signature_y", d.ESign.SignatureY)
	v.SetDefault("esign.signature_width", d.ESign.SignatureWidth)
	v.SetDefault("automation.webhook_url", "")
	v.SetDefault("automation.secret", "")
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.supabase.base_url", "")
	v.SetDefault("storage.supabase.service_key", "")
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("renewal.batch_concurrency", d.Renewal.BatchConcurrency)
	v.SetDefault("renewal.reminder_interval", d.Renewal.ReminderInterval)
	v.SetDefault("renewal.timezone", d.Renewal.Timezone)
	v.SetDefault("http_client.timeout", d.HTTPClient.Timeout)
	v.SetDefault("http_client.retry_max", d.HTTPClient.RetryMax)
	v.SetDefault("http_client.retry_wait_min", d.HTTPClient.RetryWaitMin)
	v.SetDefault("http_client.retry_wait_max", d.HTTPClient.RetryWaitMax)
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", d.Deployment.Mode)
	v.SetDefault("sentry.sample_rate", d.Sentry.SampleRate)
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
}

// GetDefaultConfig returns a configuration usable for local runs, scripts and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "local"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: "info"},
		Postgres: PostgresConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "postgres",
			Password:               "postgres",
			DBName:                 "tutordesk",
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
			ConnectTimeout:         30 * time.Second,
		},
		Auth:   AuthConfig{Secret: "local-dev-secret"},
		Public: PublicConfig{BaseURL: "http://localhost:3000"},
		Tokens: TokenConfig{
			FormTTL:     types.FormTokenTTL,
			UploadTTL:   types.UploadTokenTTL,
			DownloadTTL: types.DownloadTokenTTL,
			RenewalTTL:  types.RenewalTokenTTL,
			SignedURL:   types.SignedURLTTL,
		},
		Notification: NotificationConfig{
			Provider:    "console",
			SenderName:  "Tutordesk",
			SenderEmail: "contact@tutordesk.local",
			SMSSender:   "Tutordesk",
			Brevo:       BrevoConfig{BaseURL: "https://api.brevo.com/v3"},
		},
		ESign: ESignConfig{
			BaseURL:        "https://api-sandbox.yousign.app/v3",
			DeliveryMode:   "email",
			Timezone:       types.DefaultTimezone,
			SignaturePage:  1,
			SignatureX:     77,
			SignatureY:     581,
			SignatureWidth: 180,
		},
		Storage: StorageConfig{
			Provider: "supabase",
			Bucket:   "documents",
			S3:       S3Config{Region: "eu-west-3"},
		},
		Renewal: RenewalConfig{
			BatchConcurrency: 4,
			ReminderInterval: 7 * 24 * time.Hour,
			Timezone:         types.DefaultTimezone,
		},
		HTTPClient: HTTPClientConfig{
			Timeout:      30 * time.Second,
			RetryMax:     3,
			RetryWaitMin: 1 * time.Second,
			RetryWaitMax: 5 * time.Second,
		},
		Sentry:    SentryConfig{SampleRate: 1.0},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 2, Burst: 10},
	}
}
