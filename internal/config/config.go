// Package config provides centralized configuration for the registry reconciler.
// Settings come from environment variables (optionally seeded from a .env file
// by the caller) with defaults, and are validated up front so a misconfigured
// run fails before any table is touched.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Run      RunConfig
	Store    StoreConfig
	Database DatabaseConfig
	Notify   NotifyConfig
	Server   ServerConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// RunConfig controls a single reconciliation run.
type RunConfig struct {
	// InputFile is the path of the submission batch (JSON). May be overridden
	// by the first positional CLI argument.
	InputFile string `env:"INPUT_FILE" envAlt:"TEST_RESULTS"`

	// IssueID is copied into every processing log row written by the run.
	IssueID string `env:"RUN_ISSUE_ID"`

	// DryRun validates and reconciles without committing tables or notifying.
	DryRun bool `env:"RUN_DRY_RUN" default:"false"`

	// LockWait is how long a run waits for another run to finish (default: 30s)
	LockWait time.Duration `env:"RUN_LOCK_WAIT" default:"30s"`

	// Timeout bounds a whole run including notifications (default: 5m)
	Timeout time.Duration `env:"RUN_TIMEOUT" default:"5m"`
}

// StoreConfig selects and configures the table store backend.
type StoreConfig struct {
	// Driver is one of: csv, s3, postgres, memory (default: csv)
	Driver string `env:"STORE_DRIVER" default:"csv"`

	// Dir is the directory holding <table>.csv files for the csv driver.
	Dir string `env:"STORE_CSV_DIR" default:"./data"`

	// AllowMissing treats a table that does not exist yet as empty (default: true)
	AllowMissing bool `env:"STORE_ALLOW_MISSING" default:"true"`

	OrganizationsTable string `env:"STORE_ORGANIZATIONS_TABLE" default:"organizations"`
	ListingTable       string `env:"STORE_LISTING_TABLE" default:"listing"`
	ProcessingLogTable string `env:"STORE_PROCESSING_LOG_TABLE" default:"processing_log"`

	S3 S3Config
}

// S3Config holds settings for the S3-compatible table store.
type S3Config struct {
	Bucket    string `env:"STORE_S3_BUCKET"`
	Region    string `env:"STORE_S3_REGION" default:"us-east-1"`
	Endpoint  string `env:"STORE_S3_ENDPOINT"`
	Prefix    string `env:"STORE_S3_PREFIX"`
	PathStyle bool   `env:"STORE_S3_PATH_STYLE" default:"false"`

	// Static credentials; the default AWS credential chain is used when empty.
	AccessKeyID     string `env:"STORE_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"STORE_S3_SECRET_ACCESS_KEY"`
}

// DatabaseConfig holds PostgreSQL settings for the postgres driver.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required for the postgres driver)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Schema is the schema the three tables live in (default: public)
	Schema string `env:"DB_SCHEMA" default:"public"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// NotifyConfig holds issue tracker settings for failed submissions.
type NotifyConfig struct {
	// Enabled turns issue creation on (default: false)
	Enabled bool `env:"NOTIFY_ENABLED" default:"false"`

	// Token is the GitHub token used to open issues.
	Token string `env:"GITHUB_TOKEN"`

	// Repository is "owner/repo".
	Repository string `env:"NOTIFY_GITHUB_REPOSITORY" envAlt:"GITHUB_REPOSITORY"`

	// BaseURL points at a GitHub Enterprise API root when set.
	BaseURL string `env:"NOTIFY_GITHUB_BASE_URL"`

	// Labels are applied to every opened issue.
	Labels []string `env:"NOTIFY_LABELS" default:"registration-failed"`

	// Timeout bounds a single issue submission (default: 15s)
	Timeout time.Duration `env:"NOTIFY_TIMEOUT" default:"15s"`
}

// ServerConfig holds settings for the read API (serve mode).
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// MaxBatchBytes caps POST /api/reconcile bodies (default: 10MB)
	MaxBatchBytes int64 `env:"SERVER_MAX_BATCH_BYTES" default:"10485760"`

	// TrustedProxies are CIDRs whose X-Real-IP / X-Forwarded-For headers are honored.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`

	// APIKeys guard POST /api/reconcile when non-empty.
	APIKeys []string `env:"SERVER_API_KEYS"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// PushgatewayURL, when set, receives run metrics after each CLI run.
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `env:"METRICS_JOB" default:"spregistry"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
