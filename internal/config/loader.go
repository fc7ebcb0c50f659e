package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from the process environment.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration using getenv for lookups.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}
		envAlt := field.Tag.Get("envAlt")
		required := field.Tag.Get("required") == "true"

		value := strings.TrimSpace(getenv(envName))
		if value == "" && envAlt != "" {
			value = strings.TrimSpace(getenv(envAlt))
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Run.LockWait <= 0 {
		errs = append(errs, "RUN_LOCK_WAIT must be positive")
	}
	if c.Run.Timeout <= 0 {
		errs = append(errs, "RUN_TIMEOUT must be positive")
	}

	switch strings.ToLower(c.Store.Driver) {
	case "csv":
		if c.Store.Dir == "" {
			errs = append(errs, "STORE_CSV_DIR is required for the csv driver")
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			errs = append(errs, "STORE_S3_BUCKET is required for the s3 driver")
		}
		if (c.Store.S3.AccessKeyID == "") != (c.Store.S3.SecretAccessKey == "") {
			errs = append(errs, "STORE_S3_ACCESS_KEY_ID and STORE_S3_SECRET_ACCESS_KEY must be set together")
		}
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER (%q) must be one of: csv, s3, postgres, memory", c.Store.Driver))
	}

	tables := map[string]string{
		"STORE_ORGANIZATIONS_TABLE":  c.Store.OrganizationsTable,
		"STORE_LISTING_TABLE":        c.Store.ListingTable,
		"STORE_PROCESSING_LOG_TABLE": c.Store.ProcessingLogTable,
	}
	seen := make(map[string]string, len(tables))
	for _, env := range []string{"STORE_ORGANIZATIONS_TABLE", "STORE_LISTING_TABLE", "STORE_PROCESSING_LOG_TABLE"} {
		name := tables[env]
		if name == "" {
			errs = append(errs, env+" must not be empty")
			continue
		}
		if other, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("%s and %s both name table %q", other, env, name))
		}
		seen[name] = env
	}

	if c.Notify.Enabled {
		if c.Notify.Token == "" {
			errs = append(errs, "GITHUB_TOKEN is required when NOTIFY_ENABLED is true")
		}
		if owner, repo, ok := strings.Cut(c.Notify.Repository, "/"); !ok || owner == "" || repo == "" {
			errs = append(errs, fmt.Sprintf("NOTIFY_GITHUB_REPOSITORY (%q) must be owner/repo", c.Notify.Repository))
		}
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, "NOTIFY_TIMEOUT must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxBatchBytes <= 0 {
		errs = append(errs, "SERVER_MAX_BATCH_BYTES must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// RepositoryParts splits Notify.Repository into owner and name.
func (c *NotifyConfig) RepositoryParts() (owner, repo string) {
	owner, repo, _ = strings.Cut(c.Repository, "/")
	return owner, repo
}

// String returns a safe representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Run: {InputFile: %q, DryRun: %v}, ", c.Run.InputFile, c.Run.DryRun)
	fmt.Fprintf(&b, "Store: {Driver: %q, Dir: %q, Bucket: %q}, ", c.Store.Driver, c.Store.Dir, c.Store.S3.Bucket)
	b.WriteString("Database: {URL: [MASKED]}, ")
	fmt.Fprintf(&b, "Notify: {Enabled: %v, Repository: %q, Token: [MASKED]}, ", c.Notify.Enabled, c.Notify.Repository)
	fmt.Fprintf(&b, "Server: {Addr: %q, APIKeys: [%d MASKED]}, ", c.Server.Addr(), len(c.Server.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
