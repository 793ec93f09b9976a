// Package config resolves service settings from the environment, an optional
// .env file and an optional YAML file, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"speech-coach-go/internal/extractor"
	"speech-coach-go/internal/llm"
	"speech-coach-go/internal/speechrate"
	"speech-coach-go/internal/timestamp"
)

type LLM struct {
	Provider     string
	URL          string
	APIKey       string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	MaxRetryTime time.Duration
	Mock         bool
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	LLM    LLM
	Filler extractor.Policy

	TimestampStyle   timestamp.Style
	SpeechRateSource speechrate.Source

	TranscribeURL  string
	MockTranscribe bool
	DatasetPath    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "local")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("LLM_PROVIDER", llm.ProviderOpenAI)
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT", "25s")
	v.SetDefault("LLM_MAX_RETRY", "30s")
	v.SetDefault("LLM_TEMPERATURE", 0.0)
	v.SetDefault("USE_MOCK_LLM", false)

	def := extractor.DefaultPolicy()
	v.SetDefault("FILLER_CONCURRENCY", def.Concurrency)
	v.SetDefault("FILLER_RPS", def.RequestsPerSecond)
	v.SetDefault("FILLER_BURST", def.Burst)

	v.SetDefault("TIMESTAMP_FORMAT", string(timestamp.MMSS))
	v.SetDefault("SPEECH_RATE_SOURCE", string(speechrate.FromSegmentTiming))

	v.SetDefault("USE_MOCK_TRANSCRIBE", false)
	v.SetDefault("DATASET_PATH", "rehearsals.xlsx")
}

// Load reads .env (if present) and then the environment. file, or CONFIG_FILE
// when file is empty, names an optional YAML file whose keys are the lowercase
// variable names; environment variables win over it.
func Load(file string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file == "" {
		file = v.GetString("CONFIG_FILE")
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	style, err := timestamp.ParseStyle(v.GetString("TIMESTAMP_FORMAT"))
	if err != nil {
		return nil, err
	}
	source, err := speechrate.ParseSource(v.GetString("SPEECH_RATE_SOURCE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LLM: LLM{
			Provider:     strings.ToLower(v.GetString("LLM_PROVIDER")),
			URL:          v.GetString("LLM_GATEWAY_URL"),
			APIKey:       v.GetString("LLM_API_KEY"),
			Model:        v.GetString("LLM_MODEL"),
			Temperature:  v.GetFloat64("LLM_TEMPERATURE"),
			Timeout:      v.GetDuration("LLM_TIMEOUT"),
			MaxRetryTime: v.GetDuration("LLM_MAX_RETRY"),
			Mock:         v.GetBool("USE_MOCK_LLM"),
		},
		Filler: extractor.Policy{
			Concurrency:       v.GetInt("FILLER_CONCURRENCY"),
			RequestsPerSecond: v.GetFloat64("FILLER_RPS"),
			Burst:             v.GetInt("FILLER_BURST"),
		},
		TimestampStyle:   style,
		SpeechRateSource: source,
		TranscribeURL:    v.GetString("TRANSCRIBE_URL"),
		MockTranscribe:   v.GetBool("USE_MOCK_TRANSCRIBE"),
		DatasetPath:      v.GetString("DATASET_PATH"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component could run with. Provider credentials
// are checked when the model client is built.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLM.Timeout)
	}
	if c.LLM.MaxRetryTime < 0 {
		return fmt.Errorf("LLM_MAX_RETRY must not be negative, got %s", c.LLM.MaxRetryTime)
	}
	if c.Filler.Concurrency < 1 {
		return fmt.Errorf("FILLER_CONCURRENCY must be at least 1, got %d", c.Filler.Concurrency)
	}
	if c.Filler.RequestsPerSecond < 0 {
		return fmt.Errorf("FILLER_RPS must not be negative, got %v", c.Filler.RequestsPerSecond)
	}
	if _, err := timestamp.ParseStyle(string(c.TimestampStyle)); err != nil {
		return err
	}
	if _, err := speechrate.ParseSource(string(c.SpeechRateSource)); err != nil {
		return err
	}
	return nil
}

// LLMOptions maps the model settings onto client options.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:     c.LLM.Provider,
		URL:          c.LLM.URL,
		APIKey:       c.LLM.APIKey,
		Model:        c.LLM.Model,
		Temperature:  c.LLM.Temperature,
		Timeout:      c.LLM.Timeout,
		MaxRetryTime: c.LLM.MaxRetryTime,
	}
}
