package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel           string `env:"LOG_LEVEL" envDefault:"info"`                                   // Log level for the application (e.g., debug, info)
	EnvLogFileName         string `env:"LOG_FILE_NAME" envDefault:"hashield_bot.log"`                   // File's name for log
	EnvBotToken            string `env:"TOKEN_BOT,required"`                                            // Telegram Bot Token
	EnvBotDebug            bool   `env:"BOT_DEBUG" envDefault:"false"`                                  // Verbose Telegram API logging
	EnvDBDriver            string `env:"DB_DRIVER" envDefault:"mysql"`                                  // mysql or sqlite
	EnvDBDSN               string `env:"DB_DSN,required"`                                               // Data source name of the document store
	EnvSecurityKey         string `env:"SECURITY_KEY"`                                                  // Server key sealing wallet private keys
	EnvSecurityKeySecretID string `env:"SECURITY_KEY_SECRET_ID"`                                        // AWS Secrets Manager id holding the server key
	EnvAWSRegion           string `env:"AWS_REGION"`                                                    // Region of the secret
	EnvVaultEndpoint       string `env:"VAULT_ENDPOINT,required"`                                       // Base URL of the remote vault
	EnvVaultSecret         string `env:"VAULT_SECRET,required"`                                         // Secret shared with the vault
	EnvClientCert          string `env:"CLIENT_CERT_FILE"`                                              // Path to the client certificate file (optional mTLS)
	EnvClientKey           string `env:"CLIENT_KEY_FILE"`                                               // Path to the client private key file
	EnvClientCa            string `env:"CLIENT_CA_FILE"`                                                // Path to the vault CA certificate file
	EnvChainsFile          string `env:"CHAINS_FILE"`                                                   // YAML chain registry, embedded defaults when empty
	EnvDefaultChainID      int64  `env:"DEFAULT_CHAIN_ID" envDefault:"1"`                               // Chain used for new wallets and balances
	EnvJobTTLMinutes       int    `env:"JOB_TTL_MINUTES" envDefault:"30"`                               // Freshness window of a pending reply
	EnvWarningTTLSeconds   int    `env:"WARNING_TTL_SECONDS" envDefault:"3"`                            // Lifetime of a warning message
	EnvHealthAddr          string `env:"HEALTH_ADDR" envDefault:":8081"`                                // Listen address of the health endpoint, empty disables it
	EnvAuthRequired        bool   `env:"AUTH_REQUIRED" envDefault:"false"`                              // Ask for an access token before the menus
	EnvWebsiteURL          string `env:"WEBSITE_URL" envDefault:"https://hashieldai.com"`               // Where users get an access token
	EnvSubscriptionURL     string `env:"SUBSCRIPTION_URL" envDefault:"https://hashieldai.com/#pricing"` // Where users buy a plan
}

// NewConfig loads bot.env when present and parses the environment.
// It returns an error if a required variable is missing or invalid.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load bot.env: %w", err)
		}
		logrus.Info("bot.env not found, using process environment")
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.EnvDBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.EnvDBDriver)
	}
	if c.EnvSecurityKey == "" && c.EnvSecurityKeySecretID == "" {
		return errors.New("SECURITY_KEY or SECURITY_KEY_SECRET_ID must be set")
	}
	if c.EnvJobTTLMinutes <= 0 {
		return fmt.Errorf("JOB_TTL_MINUTES must be positive, got %d", c.EnvJobTTLMinutes)
	}
	if c.EnvWarningTTLSeconds <= 0 {
		return fmt.Errorf("WARNING_TTL_SECONDS must be positive, got %d", c.EnvWarningTTLSeconds)
	}
	return nil
}
