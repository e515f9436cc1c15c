package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// defaultYears is the built-in school-year fallback, used when neither the
// environment nor a mapped sheet tab provides the list.
const defaultYears = "תשפ״ה,תשפ״ד,תשפ״ג,תשפ״ב"

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Sheets    SheetsConfig
	Reference ReferenceConfig
	Exports   ExportsConfig
	CORS      CORSConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	Driver       string
	SQLitePath   string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SheetsConfig identifies the upstream spreadsheet and its credentials.
// Credentials come either from a service-account key file or from a
// base64-encoded copy of the same JSON supplied inline via environment.
type SheetsConfig struct {
	CredentialsFile string
	CredentialsJSON string
	SpreadsheetID   string
	FieldMap        FieldMap
	RequestTimeout  time.Duration
}

// FieldMap binds logical reference lists to sheet tabs and column headers.
// An empty column name falls back to the first data column of the tab.
type FieldMap struct {
	RosterTab         string `json:"roster_tab"`
	RosterNameColumn  string `json:"roster_name_column"`
	RosterClassColumn string `json:"roster_class_column"`
	TestsTab          string `json:"tests_tab"`
	TestsColumn       string `json:"tests_column"`
	PeriodsTab        string `json:"periods_tab"`
	PeriodsColumn     string `json:"periods_column"`
	YearsTab          string `json:"years_tab"`
	YearsColumn       string `json:"years_column"`
}

// ReferenceConfig tunes reference data caching and the clear-all gate.
type ReferenceConfig struct {
	CacheTTL     time.Duration
	DefaultYears []string
	ClearWindow  time.Duration
}

// ExportsConfig controls rendered report storage and download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a .env file is optional; only unreadable or malformed ones are fatal
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
		SQLitePath:   v.GetString("DB_SQLITE_PATH"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	fieldMap, err := parseFieldMap(v.GetString("SHEETS_FIELD_MAP"))
	if err != nil {
		return nil, fmt.Errorf("parse SHEETS_FIELD_MAP: %w", err)
	}
	cfg.Sheets = SheetsConfig{
		CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		CredentialsJSON: v.GetString("GOOGLE_CREDENTIALS_JSON"),
		SpreadsheetID:   v.GetString("SHEETS_SPREADSHEET_ID"),
		FieldMap:        fieldMap,
		RequestTimeout:  parseDuration(v.GetString("SHEETS_REQUEST_TIMEOUT"), 15*time.Second),
	}

	cfg.Reference = ReferenceConfig{
		CacheTTL:     parseDuration(v.GetString("REFERENCE_CACHE_TTL"), 5*time.Minute),
		DefaultYears: splitAndTrim(v.GetString("REFERENCE_DEFAULT_YEARS")),
		ClearWindow:  parseDuration(v.GetString("CLEAR_CONFIRM_WINDOW"), 2*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("SHEETS_SPREADSHEET_ID is required")
	}
	if c.Sheets.CredentialsFile == "" && c.Sheets.CredentialsJSON == "" {
		return errors.New("GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS_JSON is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_SQLITE_PATH", "./assignments.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "placements")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	v.SetDefault("GOOGLE_CREDENTIALS_JSON", "")
	v.SetDefault("SHEETS_SPREADSHEET_ID", "")
	v.SetDefault("SHEETS_FIELD_MAP", "")
	v.SetDefault("SHEETS_REQUEST_TIMEOUT", "15s")

	v.SetDefault("REFERENCE_CACHE_TTL", "5m")
	v.SetDefault("REFERENCE_DEFAULT_YEARS", defaultYears)
	v.SetDefault("CLEAR_CONFIRM_WINDOW", "2m")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseFieldMap(raw string) (FieldMap, error) {
	fm := FieldMap{
		RosterTab:  "Students",
		TestsTab:   "Tests",
		PeriodsTab: "Periods",
	}
	if raw == "" {
		return fm, nil
	}
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		return FieldMap{}, err
	}
	return fm, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
