package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration for both the API server and
// the terminal client. Values come from an optional YAML file, then a
// .env file, then process environment variables; the environment wins.
type Config struct {
	Port           string `yaml:"port"`
	DBConn         string `yaml:"db_conn"`
	LogLevel       string `yaml:"log_level"`
	JWTSecret      string `yaml:"jwt_secret"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       string `yaml:"smtp_port"`
	SMTPUsername   string `yaml:"smtp_username"`
	SMTPPassword   string `yaml:"smtp_password"`
	SenderEmail    string `yaml:"sender_email"`
	ScrapIndexURL  string `yaml:"scrap_index_url"`
	ReminderSpec   string `yaml:"reminder_spec"`
	PickupLocation string `yaml:"pickup_location"`

	// Client-side settings.
	APIBaseURL  string `yaml:"api_base_url"`
	SessionPath string `yaml:"session_path"`
}

// NewConfig loads configuration. A config file path may be supplied
// via CONFIG_FILE; a missing file is not an error.
func NewConfig() (*Config, error) {
	// .env is optional, environment variables still apply without it.
	_ = godotenv.Load()

	cfg := &Config{}
	if path := getEnv("CONFIG_FILE", "config.yaml"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", fallback(cfg.Port, "8080"))
	cfg.DBConn = getEnv("DB_CONN", fallback(cfg.DBConn, "host=localhost port=5432 user=binwin password=binwin dbname=binwin sslmode=disable"))
	cfg.LogLevel = getEnv("LOG_LEVEL", fallback(cfg.LogLevel, "INFO"))
	cfg.JWTSecret = getEnv("JWT_SECRET", fallback(cfg.JWTSecret, "secret"))
	cfg.SMTPHost = getEnv("SMTP_HOST", fallback(cfg.SMTPHost, "localhost"))
	cfg.SMTPPort = getEnv("SMTP_PORT", fallback(cfg.SMTPPort, "25"))
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SenderEmail = getEnv("SENDER_EMAIL", fallback(cfg.SenderEmail, "noreply@binwin.app"))
	cfg.ScrapIndexURL = getEnv("SCRAP_INDEX_URL", cfg.ScrapIndexURL)
	cfg.ReminderSpec = getEnv("REMINDER_SPEC", fallback(cfg.ReminderSpec, "0 8 * * *"))
	cfg.PickupLocation = getEnv("PICKUP_LOCATION", fallback(cfg.PickupLocation, "Madurai, TamilNadu,India"))
	cfg.APIBaseURL = getEnv("API_BASE_URL", fallback(cfg.APIBaseURL, "http://localhost:8080"))
	cfg.SessionPath = getEnv("SESSION_PATH", fallback(cfg.SessionPath, "binwin-session.db"))

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func fallback(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}
