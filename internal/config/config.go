package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/kursadbilgin/ippanel-notify/internal/ippanel"
)

type Config struct {
	IppanelAPIKey       string        `env:"IPPANEL_API_KEY,required=true"`
	IppanelSenderNumber string        `env:"IPPANEL_SENDER_NUMBER,required=true"`
	IppanelEndpoint     string        `env:"IPPANEL_API_ENDPOINT,default=https://api.ippanel.com/v1/messages"`
	StrictDelivery      bool          `env:"IPPANEL_STRICT_DELIVERY,default=false"`
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT,default=10s"`
	BatchConcurrency    int           `env:"BATCH_CONCURRENCY,default=8"`
	APIPort             int           `env:"API_PORT,default=8080"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// IppanelSettings projects the account settings the channel needs.
func (c *Config) IppanelSettings() ippanel.Settings {
	return ippanel.Settings{
		APIKey:       c.IppanelAPIKey,
		SenderNumber: c.IppanelSenderNumber,
		Endpoint:     c.IppanelEndpoint,
	}
}

// FailurePolicy maps IPPANEL_STRICT_DELIVERY onto the channel policy.
func (c *Config) FailurePolicy() ippanel.FailurePolicy {
	if c.StrictDelivery {
		return ippanel.FailurePolicyReturnError
	}
	return ippanel.FailurePolicyLogAndContinue
}
