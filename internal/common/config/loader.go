// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env, configs/config.yaml and configs/config.<APP_ENVIRONMENT>.yaml,
// applies env overrides and defaults, then validates.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// Enable ENV override like PIPELINE_GENERATE_THRESHOLD
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindSecrets(v)
	setDefaults(v)
	return v
}

// setDefaults covers keys where an explicit zero is a valid setting, so they
// cannot be defaulted after decoding.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.cosine_gate", 0.6)
	v.SetDefault("pipeline.generate_threshold", 0.5)
	v.SetDefault("remote_compute.retries", 3)
	v.SetDefault("remote_compute.boot_wait", 30000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("scheduler.max_retries", 2)
	v.SetDefault("scheduler.retry_delay", 300000)
}

// bindSecrets maps keys whose env names differ from the config path.
func bindSecrets(v *viper.Viper) {
	_ = v.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER", "DB_USER")
	_ = v.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("llm.claude_api_key", "LLM_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("remote_compute.mac_address", "REMOTE_COMPUTE_MAC_ADDRESS", "GAMING_PC_MAC")
	_ = v.BindEnv("remote_compute.host", "REMOTE_COMPUTE_HOST", "GAMING_PC_IP")
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields whose
// zero value is never meaningful.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "job-snatcher"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 600000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.QueryTimeout == 0 {
		cfg.Database.Postgres.QueryTimeout = 5000
	}

	// Stage timeouts
	if cfg.Stages.IngestTimeout == 0 {
		cfg.Stages.IngestTimeout = 30000
	}
	if cfg.Stages.CosineTimeout == 0 {
		cfg.Stages.CosineTimeout = 60000
	}
	if cfg.Stages.ReasoningTimeout == 0 {
		cfg.Stages.ReasoningTimeout = 300000
	}
	if cfg.Stages.GenerateTimeout == 0 {
		cfg.Stages.GenerateTimeout = 300000
	}
	if cfg.Stages.NotifyTimeout == 0 {
		cfg.Stages.NotifyTimeout = 30000
	}
	if cfg.Stages.IngestRatePerSecond == 0 {
		cfg.Stages.IngestRatePerSecond = 2
	}

	// Pipeline policy
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = 4
	}
	if cfg.Pipeline.GenerationMode == "" {
		cfg.Pipeline.GenerationMode = "remote"
	}
	if cfg.Pipeline.LeaseTTL == 0 {
		cfg.Pipeline.LeaseTTL = 600000
	}
	if cfg.Pipeline.Source == "" {
		cfg.Pipeline.Source = "pipeline"
	}

	if cfg.Database.Redis.PoolSize < cfg.Pipeline.Concurrency*2 {
		cfg.Database.Redis.PoolSize = max(10, cfg.Pipeline.Concurrency*2)
	}

	// Remote compute
	if cfg.RemoteCompute.Port == 0 {
		cfg.RemoteCompute.Port = 11434
	}
	if cfg.RemoteCompute.BroadcastAddress == "" {
		cfg.RemoteCompute.BroadcastAddress = "255.255.255.255"
	}
	if cfg.RemoteCompute.ProbeTimeout == 0 {
		cfg.RemoteCompute.ProbeTimeout = 3000
	}

	// LLM
	if cfg.LLM.Backend == "" {
		cfg.LLM.Backend = "claude"
	}
	if cfg.LLM.ClaudeModel == "" {
		cfg.LLM.ClaudeModel = "claude-3-5-sonnet-20241022"
	}
	if cfg.LLM.ClaudeBaseURL == "" {
		cfg.LLM.ClaudeBaseURL = "https://api.anthropic.com"
	}
	if cfg.LLM.OllamaModel == "" {
		cfg.LLM.OllamaModel = "llama3.1:70b"
	}
	if cfg.LLM.LocalOllamaURL == "" {
		cfg.LLM.LocalOllamaURL = "http://localhost:11434"
	}
	if cfg.LLM.LocalOllamaModel == "" {
		cfg.LLM.LocalOllamaModel = "llama3.2:3b"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 120000
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}

	// Notifications
	if cfg.Notifications.Search.Index == "" {
		cfg.Notifications.Search.Index = "drafted-jobs"
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "eu-north-1"
	}

	// Scheduler
	if cfg.Scheduler.Spec == "" {
		cfg.Scheduler.Spec = "0 8 * * *"
	}
	if cfg.Scheduler.QueueKey == "" {
		cfg.Scheduler.QueueKey = "job-snatcher:pending-urls"
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 50
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}
}

var validate = validator.New()

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%s failed on '%s' (%d violations)", first.Namespace(), first.Tag(), len(verrs))
		}
		return err
	}
	if cfg.Pipeline.GenerationMode == "remote" && cfg.Stages.GeneratorURL == "" {
		return fmt.Errorf("stages.generator_url is required when pipeline.generation_mode is remote")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
