package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// GATEWAY_ADDR points at a running gateway, e.g. "localhost:8080".
	// The scenario suite is skipped when it is empty.
	GatewayAddr string `envconfig:"GATEWAY_ADDR"`
	// E2E_PASSWORD is the password used for every account the suite creates.
	Password string `envconfig:"E2E_PASSWORD" default:"E2eComplexPass123!"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
