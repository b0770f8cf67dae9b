package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Hyperliquid struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		InfoURL        string        `yaml:"info_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		PollInterval   time.Duration `yaml:"poll_interval"`
		Synthetic      bool          `yaml:"synthetic"`
	} `yaml:"hyperliquid"`
	Engine struct {
		MinHistoryPoints int           `yaml:"min_history_points"`
		PairWindow       int           `yaml:"pair_window"`
		MinCorrelation   float64       `yaml:"min_correlation"`
		MinZScore        float64       `yaml:"min_z_score"`
		ScanInterval     time.Duration `yaml:"scan_interval"`
		CacheTTL         time.Duration `yaml:"cache_ttl"`
	} `yaml:"engine"`
	Costs struct {
		TakerFeeBps    float64  `yaml:"taker_fee_bps"`
		SlippageBps    float64  `yaml:"slippage_bps"`
		FundingEnabled bool     `yaml:"funding_enabled"`
		Exchanges      []string `yaml:"exchanges"`
	} `yaml:"costs"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		SignalsTopic string   `yaml:"signals_topic"`
		ReplayTopic  string   `yaml:"replay_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Hyperliquid.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("HYPERLIQUID_WS_URL"); v != "" {
		c.Hyperliquid.WebSocketURL = v
	}
	if v := os.Getenv("HYPERLIQUID_INFO_URL"); v != "" {
		c.Hyperliquid.InfoURL = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" && c.Backend.Type != "none" {
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	if len(c.Hyperliquid.Symbols) == 0 {
		return fmt.Errorf("hyperliquid.symbols cannot be empty")
	}
	if !c.Hyperliquid.Synthetic && c.Hyperliquid.WebSocketURL == "" {
		return fmt.Errorf("hyperliquid.websocket_url is required unless synthetic mode is on")
	}
	return nil
}
