// internal/workers/marketing/asset-generate/config.go
package assetgenerate

import (
	"time"

	"artisan-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := time.Duration(wc.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Config{
		Timeout: timeout,
	}
}
