package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Mail drivers
const (
	MailDriverSMTP     = "smtp"
	MailDriverSendGrid = "sendgrid"
	MailDriverLog      = "log"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
		Seed            bool   `yaml:"seed" env:"DB_SEED"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
		Leeway                string `yaml:"leeway" env:"JWT_LEEWAY"`
	} `yaml:"jwt"`

	Auth struct {
		AdminSubjects  []string `yaml:"admin_subjects" env:"AUTH_ADMIN_SUBJECTS"`
		AdminRoleClaim string   `yaml:"admin_role_claim" env:"AUTH_ADMIN_ROLE_CLAIM"`
	} `yaml:"auth"`

	Workflow struct {
		StoreTimeout      string `yaml:"store_timeout" env:"WORKFLOW_STORE_TIMEOUT"`
		RollNumberRetries int    `yaml:"roll_number_retries" env:"WORKFLOW_ROLL_NUMBER_RETRIES"`
		PasswordLength    int    `yaml:"password_length" env:"WORKFLOW_PASSWORD_LENGTH"`
	} `yaml:"workflow"`

	Mail struct {
		Driver         string `yaml:"driver" env:"MAIL_DRIVER"`
		SMTPHost       string `yaml:"smtp_host" env:"SMTP_HOST"`
		SMTPPort       int    `yaml:"smtp_port" env:"SMTP_PORT"`
		SMTPUsername   string `yaml:"smtp_username" env:"SMTP_USERNAME"`
		SMTPPassword   string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
		UseTLS         bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		SendGridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
		FromName       string `yaml:"from_name" env:"MAIL_FROM_NAME"`
		FromEmail      string `yaml:"from_email" env:"MAIL_FROM_EMAIL"`
		Timeout        string `yaml:"timeout" env:"MAIL_TIMEOUT"`
		PortalURL      string `yaml:"portal_url" env:"MAIL_PORTAL_URL"`
	} `yaml:"mail"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables.
// A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			file, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "15s"

	// Database defaults
	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "uniportal"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"
	config.Database.Seed = true

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "uniportal"
	config.JWT.Leeway = "30s"

	config.Auth.AdminRoleClaim = "admin"

	// Workflow defaults
	config.Workflow.StoreTimeout = "5s"
	config.Workflow.RollNumberRetries = 5
	config.Workflow.PasswordLength = 12

	// Mail defaults
	config.Mail.Driver = MailDriverLog
	config.Mail.SMTPPort = 587
	config.Mail.UseTLS = true
	config.Mail.FromName = "University Portal"
	config.Mail.FromEmail = "no-reply@uniportal.local"
	config.Mail.Timeout = "10s"
	config.Mail.PortalURL = "http://localhost:8080"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid database connection max lifetime: %w", err)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"server shutdown timeout":     config.Server.ShutdownTimeout,
		"JWT access token expiration": config.JWT.AccessTokenExpiration,
		"JWT leeway":                  config.JWT.Leeway,
		"workflow store timeout":      config.Workflow.StoreTimeout,
		"mail timeout":                config.Mail.Timeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.Workflow.RollNumberRetries < 1 {
		return fmt.Errorf("workflow roll number retries must be at least 1")
	}
	if config.Workflow.PasswordLength < 8 {
		return fmt.Errorf("workflow password length must be at least 8")
	}

	switch config.Mail.Driver {
	case MailDriverLog:
	case MailDriverSMTP:
		if config.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required for the smtp mail driver")
		}
	case MailDriverSendGrid:
		if config.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required for the sendgrid mail driver")
		}
	default:
		return fmt.Errorf("unsupported mail driver %q", config.Mail.Driver)
	}
	if config.Mail.FromEmail == "" {
		return fmt.Errorf("mail from address is required")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// IsAdminSubject reports whether subject is on the administrator allow-list
func (c *Config) IsAdminSubject(subject string) bool {
	for _, s := range c.Auth.AdminSubjects {
		if strings.TrimSpace(s) == subject && subject != "" {
			return true
		}
	}
	return false
}
