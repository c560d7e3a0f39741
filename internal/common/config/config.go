// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Camunda       CamundaConfig       `mapstructure:"camunda"`
	Stages        StagesConfig        `mapstructure:"stages"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	RemoteCompute RemoteComputeConfig `mapstructure:"remote_compute"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"min=1,max=65535"`
	Database       string `mapstructure:"database" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
	QueryTimeout   int    `mapstructure:"query_timeout"` // milliseconds
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address" validate:"required_if=Enabled true"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// StagesConfig points at the independently deployed stage services.
type StagesConfig struct {
	IngesterURL  string `mapstructure:"ingester_url" validate:"omitempty,url"`
	CosineURL    string `mapstructure:"cosine_url" validate:"required,url"`
	ReasoningURL string `mapstructure:"reasoning_url" validate:"required,url"`
	GeneratorURL string `mapstructure:"generator_url" validate:"omitempty,url"`
	CuratorURL   string `mapstructure:"curator_url" validate:"omitempty,url"`

	IngestTimeout    int `mapstructure:"ingest_timeout"`    // milliseconds
	CosineTimeout    int `mapstructure:"cosine_timeout"`    // milliseconds
	ReasoningTimeout int `mapstructure:"reasoning_timeout"` // milliseconds
	GenerateTimeout  int `mapstructure:"generate_timeout"`  // milliseconds
	NotifyTimeout    int `mapstructure:"notify_timeout"`    // milliseconds

	IngestRatePerSecond float64 `mapstructure:"ingest_rate_per_second"`
}

// PipelineConfig holds gating policy and execution knobs.
type PipelineConfig struct {
	CosineGate        float64 `mapstructure:"cosine_gate" validate:"gte=0,lte=1"`
	GenerateThreshold float64 `mapstructure:"generate_threshold" validate:"gte=0,lte=1"`
	Concurrency       int     `mapstructure:"concurrency" validate:"gte=1"`
	GenerationMode    string  `mapstructure:"generation_mode" validate:"oneof=remote local"`
	LeaseTTL          int     `mapstructure:"lease_ttl"` // milliseconds
	Source            string  `mapstructure:"source"`
}

// RemoteComputeConfig describes the sleep-capable inference node used by reasoning.
type RemoteComputeConfig struct {
	MACAddress       string `mapstructure:"mac_address" validate:"omitempty,mac"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port" validate:"min=0,max=65535"`
	BroadcastAddress string `mapstructure:"broadcast_address"`
	Retries          int    `mapstructure:"retries" validate:"gte=0"`
	BootWait         int    `mapstructure:"boot_wait"`     // milliseconds
	ProbeTimeout     int    `mapstructure:"probe_timeout"` // milliseconds
}

// LLMConfig selects the text generation backend used by local drafting.
type LLMConfig struct {
	Backend          string  `mapstructure:"backend" validate:"oneof=claude ollama_gaming ollama_local"`
	ClaudeAPIKey     string  `mapstructure:"claude_api_key"`
	ClaudeModel      string  `mapstructure:"claude_model"`
	ClaudeBaseURL    string  `mapstructure:"claude_base_url"`
	OllamaBaseURL    string  `mapstructure:"ollama_base_url"`
	OllamaModel      string  `mapstructure:"ollama_model"`
	LocalOllamaURL   string  `mapstructure:"local_ollama_url"`
	LocalOllamaModel string  `mapstructure:"local_ollama_model"`
	Timeout          int     `mapstructure:"timeout"` // milliseconds
	MaxTokens        int     `mapstructure:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
}

// NotificationConfig holds the best-effort sinks of the notify stage.
type NotificationConfig struct {
	Curator struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"curator"`
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email" validate:"omitempty,email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn" validate:"required_if=Enabled true"`
	} `mapstructure:"sns"`
	Search struct {
		Enabled   bool     `mapstructure:"enabled"`
		Addresses []string `mapstructure:"addresses"`
		Username  string   `mapstructure:"username"`
		Password  string   `mapstructure:"password"`
		Index     string   `mapstructure:"index"`
	} `mapstructure:"search"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// SchedulerConfig drives the cron trigger.
type SchedulerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Spec       string `mapstructure:"spec"`
	QueueKey   string `mapstructure:"queue_key"`
	BatchSize  int    `mapstructure:"batch_size" validate:"gte=0"`
	MaxRetries int    `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelay int    `mapstructure:"retry_delay"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
