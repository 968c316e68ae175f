package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FinSignal/pkg/logger"
	xutil "FinSignal/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps" default:"20" validate:"gte=0"`
		RateLimitBurst  int           `yaml:"rate_limit_burst" default:"40" validate:"gte=1"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger logger.Config `yaml:"logger"`
	Engine struct {
		DefaultSymbol    string        `yaml:"default_symbol" default:"UNKNOWN"`
		AssetType        string        `yaml:"asset_type" default:"stock" validate:"oneof=stock crypto forex commodity"`
		ClassifyWorkers  int           `yaml:"classify_workers" default:"4" validate:"gte=1,lte=64"`
		ClassifyTimeout  time.Duration `yaml:"classify_timeout" default:"5s"`
		MaxTextLen       int           `yaml:"max_text_len" default:"512" validate:"gte=1"`
		BatchConcurrency int           `yaml:"batch_concurrency" default:"8" validate:"gte=1"`
		BatchTimeout     time.Duration `yaml:"batch_timeout" default:"60s"`
		CandlesLookback  int           `yaml:"candles_lookback" default:"200" validate:"gte=1"`
		Timeframe        string        `yaml:"timeframe" default:"1d" validate:"oneof=1m 5m 1h 1d"`
	} `yaml:"engine"`
	Classifier struct {
		URL      string        `yaml:"url"`
		Path     string        `yaml:"path" default:"/classify"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
		Retries  int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"1h"`
	} `yaml:"classifier"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		RequestsTopic string   `yaml:"requests_topic" default:"signal-requests"`
		SignalsTopic  string   `yaml:"signals_topic" default:"trading-signals"`
		LogsTopic     string   `yaml:"logs_topic"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"finsignal-engine"`
			Workers    int           `yaml:"workers" default:"4" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finsignal"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Finnhub struct {
		APIKey       string        `yaml:"api_key"`
		BaseURL      string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		NewsLookback time.Duration `yaml:"news_lookback" default:"72h"`
		MaxNews      int           `yaml:"max_news" default:"20" validate:"gte=1,lte=200"`
		Timeout      time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"finnhub"`
	Scanner struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval" default:"5m"`
		Symbols  []string      `yaml:"symbols"`
		MaxRPS   float64       `yaml:"max_rps" default:"5" validate:"gt=0"`
	} `yaml:"scanner"`
	Dispatch struct {
		Backend       string        `yaml:"backend" default:"none" validate:"oneof=kafka clickhouse both none"`
		Buffer        int           `yaml:"buffer" default:"1000" validate:"gte=1"`
		MinInterval   time.Duration `yaml:"min_interval" default:"1s"`
		RetryInterval time.Duration `yaml:"retry_interval" default:"2s"`
	} `yaml:"dispatch"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.Scanner.Symbols = xutil.NormalizeSymbols(c.Scanner.Symbols)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), then the YAML file, then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = xutil.SplitList(v)
	}
	if v := os.Getenv("CLASSIFIER_URL"); v != "" {
		c.Classifier.URL = v
	}
	if v := os.Getenv("SCANNER_SYMBOLS"); v != "" {
		c.Scanner.Symbols = xutil.NormalizeSymbols(xutil.SplitList(v))
	}
	if v := os.Getenv("DISPATCH_BACKEND"); v != "" {
		c.Dispatch.Backend = v
	}
	c.Server.Port = xutil.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Dispatch.Backend {
	case "kafka", "both":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required for dispatch backend %q", c.Dispatch.Backend)
		}
	}
	if c.Kafka.Consumer.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when the request consumer is enabled")
	}
	if c.Scanner.Enabled && len(c.Scanner.Symbols) == 0 {
		return fmt.Errorf("scanner.symbols cannot be empty when the scanner is enabled")
	}
	return nil
}

// UsesKafka reports whether signals are published to Kafka.
func (c *Config) UsesKafka() bool {
	return c.Dispatch.Backend == "kafka" || c.Dispatch.Backend == "both"
}

// UsesClickHouse reports whether ClickHouse is needed for archiving or candles.
func (c *Config) UsesClickHouse() bool {
	return c.ClickHouse.Enabled || c.Dispatch.Backend == "clickhouse" || c.Dispatch.Backend == "both"
}
