package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Resolve   ResolveConfig   `yaml:"resolve" mapstructure:"resolve"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResolveConfig configures field resolution.
type ResolveConfig struct {
	Runs             int     `yaml:"runs" mapstructure:"runs"`
	QAThreshold      float64 `yaml:"qa_threshold" mapstructure:"qa_threshold"`
	FlagThreshold    float64 `yaml:"flag_threshold" mapstructure:"flag_threshold"`
	FieldConcurrency int     `yaml:"field_concurrency" mapstructure:"field_concurrency"`
	// SchemaFile is an optional YAML file of schema and question overrides.
	SchemaFile string `yaml:"schema_file" mapstructure:"schema_file"`
}

// OracleConfig configures the answer oracle and the limits around it.
type OracleConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxConcurrency    int     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BreakerFailures   int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs  int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
	MaxContextChars   int     `yaml:"max_context_chars" mapstructure:"max_context_chars"`
}

// Timeout returns TimeoutSecs as a duration.
func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// BreakerReset returns BreakerResetSecs as a duration.
func (o OracleConfig) BreakerReset() time.Duration {
	return time.Duration(o.BreakerResetSecs) * time.Second
}

// AnthropicConfig holds Anthropic API credentials.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ClassifyConfig configures document type detection.
type ClassifyConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Model       string `yaml:"model" mapstructure:"model"`
	SampleChars int    `yaml:"sample_chars" mapstructure:"sample_chars"`
}

// OCRConfig configures text extraction from PDFs and images.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	PdfToPPMPath  string `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	Language      string `yaml:"language" mapstructure:"language"`
	// Charset decodes plain text files that are not valid UTF-8.
	Charset       string `yaml:"charset" mapstructure:"charset"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
	RetryAttempts int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// StoreConfig configures the database backend. An empty driver disables
// persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("resolve.runs", 3)
	v.SetDefault("resolve.qa_threshold", 0.35)
	v.SetDefault("resolve.flag_threshold", 0.6)
	v.SetDefault("resolve.field_concurrency", 4)
	v.SetDefault("resolve.schema_file", "")
	v.SetDefault("oracle.provider", "anthropic")
	v.SetDefault("oracle.model", "claude-haiku-4-5-20251001")
	v.SetDefault("oracle.max_tokens", 256)
	v.SetDefault("oracle.temperature", 0.7)
	v.SetDefault("oracle.max_concurrency", 4)
	v.SetDefault("oracle.requests_per_second", 5)
	v.SetDefault("oracle.burst", 5)
	v.SetDefault("oracle.timeout_secs", 30)
	v.SetDefault("oracle.breaker_failures", 5)
	v.SetDefault("oracle.breaker_reset_secs", 30)
	v.SetDefault("oracle.max_context_chars", 12000)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("classify.provider", "keyword")
	v.SetDefault("classify.model", "claude-haiku-4-5-20251001")
	v.SetDefault("classify.sample_chars", 800)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.charset", "windows-1252")
	v.SetDefault("ocr.mistral_api_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ocr.retry_attempts", 3)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is the command name:
// "extract", "serve" or "history".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Resolve.Runs <= 0 {
		errs = append(errs, "resolve.runs must be positive")
	}
	if c.Resolve.QAThreshold < 0 || c.Resolve.QAThreshold > 1 {
		errs = append(errs, "resolve.qa_threshold must be within [0,1]")
	}
	if c.Resolve.FlagThreshold < 0 || c.Resolve.FlagThreshold > 1 {
		errs = append(errs, "resolve.flag_threshold must be within [0,1]")
	}

	if mode == "extract" || mode == "serve" {
		usesAnthropic := c.Oracle.Provider == "anthropic" || c.Classify.Provider == "anthropic"
		if usesAnthropic && c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		switch c.Oracle.Provider {
		case "anthropic":
		default:
			errs = append(errs, "oracle.provider must be anthropic")
		}
		switch c.Classify.Provider {
		case "keyword", "anthropic":
		default:
			errs = append(errs, "classify.provider must be keyword or anthropic")
		}
		switch c.OCR.Provider {
		case "", "local", "mistral":
		default:
			errs = append(errs, "ocr.provider must be local or mistral")
		}
		if c.OCR.Provider == "mistral" && c.OCR.MistralKey == "" {
			errs = append(errs, "ocr.mistral_api_key is required for ocr.provider=mistral")
		}
	}

	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or empty")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if mode == "history" && c.Store.Driver == "" {
		errs = append(errs, "store.driver is required for history")
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
