package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// parseEnv overlays HIVE_* variables found by l onto config. Variables that
// are not set keep the value from the previous layers.
func parseEnv(ctx context.Context, config *Config, l envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   config,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	}); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	return nil
}
