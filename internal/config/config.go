package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Retention RetentionConfig `yaml:"retention"`
	Push      PushConfig      `yaml:"push"`
	Email     EmailConfig     `yaml:"email"`
	Billing   BillingConfig   `yaml:"billing"`
	Backup    BackupConfig    `yaml:"backup"`
	Tracking  TrackingConfig  `yaml:"tracking"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"REPSET_PORT"             env-default:"8080"`
	BaseURL         string        `yaml:"base_url"         env:"REPSET_BASE_URL"         env-default:"http://localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"REPSET_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"REPSET_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"REPSET_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"REPSET_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"REPSET_DB_PATH" env-default:"repset.db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"REPSET_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"REPSET_LOG_FORMAT" env-default:"text"`
}

// RetentionConfig holds batch-run settings for the retention engine.
type RetentionConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" env:"REPSET_RETENTION_TICK"    env-default:"1h"`
	RunHour      int           `yaml:"run_hour"      env:"REPSET_RETENTION_HOUR"    env-default:"6"`
	Workers      int           `yaml:"workers"       env:"REPSET_RETENTION_WORKERS" env-default:"4"`
}

// PushConfig holds VAPID keys for web push.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"  env:"REPSET_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `yaml:"vapid_private_key" env:"REPSET_VAPID_PRIVATE_KEY"`
}

// EmailConfig holds Postmark settings for outbound campaign email.
type EmailConfig struct {
	ServerToken string `yaml:"server_token" env:"REPSET_POSTMARK_TOKEN"`
	FromEmail   string `yaml:"from_email"   env:"REPSET_FROM_EMAIL" env-default:"noreply@repset.app"`
}

// BillingConfig holds the Stripe webhook settings that keep membership
// status in sync. Checkout and invoicing live entirely in Stripe.
type BillingConfig struct {
	WebhookSecret  string `yaml:"webhook_secret"   env:"REPSET_STRIPE_WEBHOOK_SECRET"`
	PremiumPriceID string `yaml:"premium_price_id" env:"REPSET_STRIPE_PREMIUM_PRICE"`
}

// BackupConfig holds S3-compatible storage settings for database snapshots.
type BackupConfig struct {
	Endpoint      string        `yaml:"endpoint"       env:"REPSET_BACKUP_S3_ENDPOINT"`
	Bucket        string        `yaml:"bucket"         env:"REPSET_BACKUP_S3_BUCKET"`
	Region        string        `yaml:"region"         env:"REPSET_BACKUP_S3_REGION" env-default:"auto"`
	AccessKey     string        `yaml:"access_key"     env:"REPSET_BACKUP_S3_ACCESS_KEY"`
	SecretKey     string        `yaml:"secret_key"     env:"REPSET_BACKUP_S3_SECRET_KEY"`
	Interval      time.Duration `yaml:"interval"       env:"REPSET_BACKUP_INTERVAL"  env-default:"24h"`
	RetentionDays int           `yaml:"retention_days" env:"REPSET_BACKUP_RETENTION" env-default:"30"`
}

// TrackingConfig holds the secret used to sign campaign tracking tokens.
type TrackingConfig struct {
	Secret string `yaml:"secret" env:"REPSET_TRACKING_SECRET" env-required:"true"`
}

// Validate checks cross-field constraints that tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Retention.Workers < 1 {
		return fmt.Errorf("retention.workers must be >= 1, got %d", c.Retention.Workers)
	}
	if c.Retention.RunHour < 0 || c.Retention.RunHour > 23 {
		return fmt.Errorf("retention.run_hour %d out of range", c.Retention.RunHour)
	}
	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("backup.retention_days must be >= 1, got %d", c.Backup.RetentionDays)
	}
	return nil
}
