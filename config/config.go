package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type MongoConfig struct {
	URI    string `env:"MONGO_URI" env-required:"true"`
	DBName string `env:"MONGO_DB_NAME" env-default:"task_manager"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"EMAIL_FROM" env-default:"TaskManager <no-reply@taskmanager.local>"`
}

type Config struct {
	Port                  string  `env:"SERVER_PORT" env-default:"5000"`
	Mongo                 MongoConfig
	JWTSecret             string `env:"JWT_SECRET" env-required:"true"`
	AdminInviteToken      string `env:"ADMIN_INVITE_TOKEN"`
	SMTP                  SMTPConfig
	ClientURL             string  `env:"CLIENT_URL"`
	UploadDir             string  `env:"UPLOAD_DIR" env-default:"uploads"`
	LogFile               string  `env:"LOG_FILE"`
	LogLevel              string  `env:"LOG_LEVEL" env-default:"info"`
	PasswordBlacklistFile string  `env:"PASSWORD_BLACKLIST_FILE"`
	AuthRateLimit         float64 `env:"AUTH_RATE_LIMIT" env-default:"5"`
	AuthRateBurst         int     `env:"AUTH_RATE_BURST" env-default:"10"`
}

const defaultResetLinkBase = "http://localhost:5173"

// AllowedOrigin is the CORS origin; everything is allowed when CLIENT_URL is unset.
func (c Config) AllowedOrigin() string {
	if c.ClientURL == "" {
		return "*"
	}
	return c.ClientURL
}

// ResetLinkBase is the frontend base URL used in password reset e-mails.
func (c Config) ResetLinkBase() string {
	if c.ClientURL == "" {
		return defaultResetLinkBase
	}
	return c.ClientURL
}

// Load reads envFile (if it exists) into the process environment and then parses the
// environment. A missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			var pe *os.PathError
			if !errors.As(err, &pe) {
				return Config{}, fmt.Errorf("cannot read %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot read env: %w", err)
	}
	return cfg, nil
}
