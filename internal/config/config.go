package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"invoiceqc/internal/money"
	"invoiceqc/internal/validator/invoice"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Log        LogConfig
	Validation ValidationConfig
	Parser     ParserConfig
	Extract    ExtractConfig
	CORS       CORSConfig
	Archive    ArchiveConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ParserProviderConfig holds settings for a single LLM parser provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds the text-to-invoice parser chain. Both providers are
// optional; the regex parser always runs last.
type ParserConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary parser provider config, or nil if not configured.
func (p *ParserConfig) PrimaryConfig() *ParserProviderConfig {
	if p.Primary.Provider != "" {
		return &p.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary parser provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxBodyMB    int64         `mapstructure:"max_body_mb"`
}

// DBConfig holds database connection settings. Driver "sqlite" uses Path;
// driver "postgres" uses the network fields.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the connection string for the configured driver.
func (d *DBConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
		)
	}
	return d.Path
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationConfig holds rule engine settings. Amounts are decimal strings.
type ValidationConfig struct {
	HighAmountThreshold  string   `mapstructure:"high_amount_threshold"`
	Tolerance            string   `mapstructure:"tolerance"`
	AllowedCurrencies    []string `mapstructure:"allowed_currencies"`
	DuplicateTimeoutSecs int      `mapstructure:"duplicate_timeout_secs"`
	BatchConcurrency     int      `mapstructure:"batch_concurrency"`
}

// RuleOptions converts the configuration into rule settings.
func (c *ValidationConfig) RuleOptions() (invoice.RuleOptions, error) {
	threshold, ok := money.Normalize(c.HighAmountThreshold)
	if !ok || threshold.IsNegative() {
		return invoice.RuleOptions{}, fmt.Errorf("invalid validation.high_amount_threshold %q", c.HighAmountThreshold)
	}
	tolerance, ok := money.Normalize(c.Tolerance)
	if !ok || tolerance.IsNegative() {
		return invoice.RuleOptions{}, fmt.Errorf("invalid validation.tolerance %q", c.Tolerance)
	}
	return invoice.RuleOptions{
		Tolerance:           tolerance,
		HighAmountThreshold: threshold,
		AllowedCurrencies:   c.AllowedCurrencies,
		DuplicateTimeout:    time.Duration(c.DuplicateTimeoutSecs) * time.Second,
	}.WithDefaults(), nil
}

// ExtractConfig holds PDF extraction limits.
type ExtractConfig struct {
	MaxPDFSizeMB int64 `mapstructure:"max_pdf_size_mb"`
	Concurrency  int   `mapstructure:"concurrency"`
}

// ArchiveConfig holds settings for archiving reports to S3-compatible storage.
type ArchiveConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Prefix        string `mapstructure:"prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Load reads configuration from environment variables with the INVOICEQC_ prefix.
func Load() (*Config, error) {
	return load("")
}

// LoadFile layers a config file (yaml, toml or json) under the environment.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEQC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_body_mb", 10)

	// DB defaults
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "invoices.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoiceqc")
	v.SetDefault("db.password", "invoiceqc_secret")
	v.SetDefault("db.name", "invoiceqc")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Validation defaults
	v.SetDefault("validation.high_amount_threshold", "1000000.00")
	v.SetDefault("validation.tolerance", "0.01")
	v.SetDefault("validation.allowed_currencies", "EUR,USD,INR,GBP")
	v.SetDefault("validation.duplicate_timeout_secs", 5)
	v.SetDefault("validation.batch_concurrency", 4)

	// Extraction defaults
	v.SetDefault("extract.max_pdf_size_mb", 50)
	v.SetDefault("extract.concurrency", 4)

	// CORS defaults (open for local development)
	v.SetDefault("cors.allowed_origins", "*")

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "invoiceqc-reports")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.prefix", "reports")
	v.SetDefault("archive.presign_expiry", 3600)

	// Parser defaults
	v.SetDefault("parser.primary.provider", "")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.default_model", "")
	v.SetDefault("parser.primary.max_retries", 2)
	v.SetDefault("parser.primary.timeout_secs", 120)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.api_key", "")
	v.SetDefault("parser.secondary.default_model", "")
	v.SetDefault("parser.secondary.max_retries", 2)
	v.SetDefault("parser.secondary.timeout_secs", 120)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "INVOICEQC_SERVER_PORT",
		"server.read_timeout":               "INVOICEQC_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "INVOICEQC_SERVER_WRITE_TIMEOUT",
		"server.environment":                "INVOICEQC_SERVER_ENVIRONMENT",
		"server.max_body_mb":                "INVOICEQC_SERVER_MAX_BODY_MB",
		"db.driver":                         "INVOICEQC_DB_DRIVER",
		"db.path":                           "INVOICEQC_DB_PATH",
		"db.host":                           "INVOICEQC_DB_HOST",
		"db.port":                           "INVOICEQC_DB_PORT",
		"db.user":                           "INVOICEQC_DB_USER",
		"db.password":                       "INVOICEQC_DB_PASSWORD",
		"db.name":                           "INVOICEQC_DB_NAME",
		"db.sslmode":                        "INVOICEQC_DB_SSLMODE",
		"db.max_open":                       "INVOICEQC_DB_MAX_OPEN",
		"db.max_idle":                       "INVOICEQC_DB_MAX_IDLE",
		"log.level":                         "INVOICEQC_LOG_LEVEL",
		"log.format":                        "INVOICEQC_LOG_FORMAT",
		"validation.high_amount_threshold":  "INVOICEQC_VALIDATION_HIGH_AMOUNT_THRESHOLD",
		"validation.tolerance":              "INVOICEQC_VALIDATION_TOLERANCE",
		"validation.allowed_currencies":     "INVOICEQC_VALIDATION_ALLOWED_CURRENCIES",
		"validation.duplicate_timeout_secs": "INVOICEQC_VALIDATION_DUPLICATE_TIMEOUT_SECS",
		"validation.batch_concurrency":      "INVOICEQC_VALIDATION_BATCH_CONCURRENCY",
		"extract.max_pdf_size_mb":           "INVOICEQC_EXTRACT_MAX_PDF_SIZE_MB",
		"extract.concurrency":               "INVOICEQC_EXTRACT_CONCURRENCY",
		"cors.allowed_origins":              "INVOICEQC_CORS_ALLOWED_ORIGINS",
		"archive.enabled":                   "INVOICEQC_ARCHIVE_ENABLED",
		"archive.region":                    "INVOICEQC_ARCHIVE_REGION",
		"archive.bucket":                    "INVOICEQC_ARCHIVE_BUCKET",
		"archive.endpoint":                  "INVOICEQC_ARCHIVE_ENDPOINT",
		"archive.access_key":                "INVOICEQC_ARCHIVE_ACCESS_KEY",
		"archive.secret_key":                "INVOICEQC_ARCHIVE_SECRET_KEY",
		"archive.prefix":                    "INVOICEQC_ARCHIVE_PREFIX",
		"archive.presign_expiry":            "INVOICEQC_ARCHIVE_PRESIGN_EXPIRY",
		"parser.primary.provider":           "INVOICEQC_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":            "INVOICEQC_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":      "INVOICEQC_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.max_retries":        "INVOICEQC_PARSER_PRIMARY_MAX_RETRIES",
		"parser.primary.timeout_secs":       "INVOICEQC_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.secondary.provider":         "INVOICEQC_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":          "INVOICEQC_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model":    "INVOICEQC_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.max_retries":      "INVOICEQC_PARSER_SECONDARY_MAX_RETRIES",
		"parser.secondary.timeout_secs":     "INVOICEQC_PARSER_SECONDARY_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEQC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEQC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxBodyMB:    v.GetInt64("server.max_body_mb"),
	}
	cfg.DB = DBConfig{
		Driver:   strings.ToLower(v.GetString("db.driver")),
		Path:     v.GetString("db.path"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported db.driver %q (want sqlite or postgres)", cfg.DB.Driver)
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Validation = ValidationConfig{
		HighAmountThreshold:  v.GetString("validation.high_amount_threshold"),
		Tolerance:            v.GetString("validation.tolerance"),
		AllowedCurrencies:    listSetting(v, "validation.allowed_currencies"),
		DuplicateTimeoutSecs: v.GetInt("validation.duplicate_timeout_secs"),
		BatchConcurrency:     v.GetInt("validation.batch_concurrency"),
	}
	if _, err := cfg.Validation.RuleOptions(); err != nil {
		return nil, err
	}
	cfg.Extract = ExtractConfig{
		MaxPDFSizeMB: v.GetInt64("extract.max_pdf_size_mb"),
		Concurrency:  v.GetInt("extract.concurrency"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: listSetting(v, "cors.allowed_origins"),
	}
	cfg.Archive = ArchiveConfig{
		Enabled:       v.GetBool("archive.enabled"),
		Region:        v.GetString("archive.region"),
		Bucket:        v.GetString("archive.bucket"),
		Endpoint:      v.GetString("archive.endpoint"),
		AccessKey:     v.GetString("archive.access_key"),
		SecretKey:     v.GetString("archive.secret_key"),
		Prefix:        v.GetString("archive.prefix"),
		PresignExpiry: v.GetInt64("archive.presign_expiry"),
	}

	cfg.Parser = ParserConfig{
		Primary: ParserProviderConfig{
			Provider:     v.GetString("parser.primary.provider"),
			APIKey:       v.GetString("parser.primary.api_key"),
			DefaultModel: v.GetString("parser.primary.default_model"),
			MaxRetries:   v.GetInt("parser.primary.max_retries"),
			TimeoutSecs:  v.GetInt("parser.primary.timeout_secs"),
		},
		Secondary: ParserProviderConfig{
			Provider:     v.GetString("parser.secondary.provider"),
			APIKey:       v.GetString("parser.secondary.api_key"),
			DefaultModel: v.GetString("parser.secondary.default_model"),
			MaxRetries:   v.GetInt("parser.secondary.max_retries"),
			TimeoutSecs:  v.GetInt("parser.secondary.timeout_secs"),
		},
	}

	return cfg, nil
}

// listSetting reads a list that may come from a config file as a sequence
// or from the environment as a comma-separated string.
func listSetting(v *viper.Viper, key string) []string {
	switch v.Get(key).(type) {
	case []any, []string:
		return v.GetStringSlice(key)
	}
	return splitList(v.GetString(key))
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
