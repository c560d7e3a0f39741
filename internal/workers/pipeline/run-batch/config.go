// internal/workers/pipeline/run-batch/config.go
package runbatch

import "time"

type Config struct {
	Timeout time.Duration
}

// LoadConfig uses the job timeout the worker is registered with, so a batch
// cannot outlive its job activation.
func LoadConfig(jobTimeout time.Duration) *Config {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Config{Timeout: jobTimeout}
}
