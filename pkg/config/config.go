package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the backend server
type Config struct {
	// Server
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"`

	// Database
	DatabaseURL string `mapstructure:"database_url"`

	// JWT
	JWTSecret    string `mapstructure:"jwt_secret"`
	JWTExpiresIn string `mapstructure:"jwt_expires_in"`

	// Session
	SessionSecret string `mapstructure:"session_secret"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`

	// Allowed Origins
	AllowedOrigins string `mapstructure:"allowed_origins"`

	Redis  RedisConfig  `mapstructure:"redis"`
	GCP    GCPConfig    `mapstructure:"gcp"`
	FCM    FCMConfig    `mapstructure:"fcm"`
	Log    LogConfig    `mapstructure:"log"`
	Limits LimitsConfig `mapstructure:"limits"`
}

// RedisConfig controls the /api/state snapshot cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// GCPConfig controls snapshot backups. An empty Bucket disables them.
type GCPConfig struct {
	Bucket      string `mapstructure:"bucket"`
	Credentials string `mapstructure:"credentials"`
}

// FCMConfig controls stock alert pushes.
type FCMConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

// LogConfig selects zap level and encoding ("json" or "console").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LimitsConfig caps the collections returned by GET /api/state.
type LimitsConfig struct {
	Orders         int `mapstructure:"orders"`
	SalesDays      int `mapstructure:"sales_days"`
	AttendanceLogs int `mapstructure:"attendance_logs"`
	TrendDays      int `mapstructure:"trend_days"`
}

var AppConfig *Config

// legacyEnv maps config keys onto the bare environment names deployments already use.
var legacyEnv = map[string]string{
	"port":            "PORT",
	"environment":     "NODE_ENV",
	"database_url":    "DATABASE_URL",
	"jwt_secret":      "JWT_SECRET",
	"jwt_expires_in":  "JWT_EXPIRES_IN",
	"session_secret":  "SESSION_SECRET",
	"cookie_secure":   "COOKIE_SECURE",
	"allowed_origins": "ALLOWED_ORIGINS",
	"gcp.bucket":      "GCP_BUCKET_NAME",
	"gcp.credentials": "GOOGLE_APPLICATION_CREDENTIALS",
	"redis.addr":      "REDIS_ADDR",
}

func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("port", "5500")
	v.SetDefault("environment", "development")
	v.SetDefault("timezone", "Local")
	v.SetDefault("jwt_expires_in", "7d")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "30s")
	v.SetDefault("gcp.bucket", "")
	v.SetDefault("gcp.credentials", "")
	v.SetDefault("fcm.enabled", false)
	v.SetDefault("fcm.topic", "inventory-alerts")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("limits.orders", 200)
	v.SetDefault("limits.sales_days", 90)
	v.SetDefault("limits.attendance_logs", 100)
	v.SetDefault("limits.trend_days", 30)
}

// Load reads server configuration from .env, an optional config file and the
// environment, in rising priority.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (optional in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := newViper("SWEETBOX")
	setServerDefaults(v)
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "SWEETBOX_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	if err := readFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the keys the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.SessionSecret == "" {
		c.SessionSecret = c.JWTSecret
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the business timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TokenTTL parses JWTExpiresIn ("7d", "12h", "30m"), defaulting to seven days.
func (c *Config) TokenTTL() time.Duration {
	s := strings.TrimSpace(c.JWTExpiresIn)
	if strings.HasSuffix(s, "d") {
		var days int
		if _, err := fmt.Sscanf(strings.TrimSuffix(s, "d"), "%d", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

// LoadConfig loads the server configuration into AppConfig, exiting on failure.
func LoadConfig() {
	cfg, err := Load("")
	if err != nil {
		log.Fatal(err)
	}
	AppConfig = cfg
	log.Println("✅ Configuration loaded successfully")
}

// IsProduction returns true if running in production mode
func IsProduction() bool {
	return AppConfig != nil && AppConfig.Environment == "production"
}

// IsDevelopment returns true if running in development mode
func IsDevelopment() bool {
	return AppConfig == nil || AppConfig.Environment == "development" || AppConfig.Environment == ""
}

// BusinessLocation is the zone calendar days are computed in on the server.
func BusinessLocation() *time.Location {
	if AppConfig == nil {
		return time.Local
	}
	loc, err := AppConfig.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// StateLimits returns the GET /api/state caps, falling back to the defaults.
func StateLimits() LimitsConfig {
	l := LimitsConfig{Orders: 200, SalesDays: 90, AttendanceLogs: 100, TrendDays: 30}
	if AppConfig == nil {
		return l
	}
	if AppConfig.Limits.Orders > 0 {
		l.Orders = AppConfig.Limits.Orders
	}
	if AppConfig.Limits.SalesDays > 0 {
		l.SalesDays = AppConfig.Limits.SalesDays
	}
	if AppConfig.Limits.AttendanceLogs > 0 {
		l.AttendanceLogs = AppConfig.Limits.AttendanceLogs
	}
	if AppConfig.Limits.TrendDays > 0 {
		l.TrendDays = AppConfig.Limits.TrendDays
	}
	return l
}
