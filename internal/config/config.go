// Package config handles loading and validating the tandem configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the tandem daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Models     ModelsConfig     `mapstructure:"models"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
	// MaxUploadBytes caps request bodies (audio uploads included).
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// ModelsConfig configures the model gateway.
type ModelsConfig struct {
	// DefaultProvider is used when a request does not name one.
	DefaultProvider string `mapstructure:"default_provider"`
	// KeyStrategy picks keys from each provider's pool: first, round_robin, random.
	KeyStrategy string                    `mapstructure:"key_strategy"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig holds one model provider's settings.
type ProviderConfig struct {
	// BaseURL overrides the provider's public endpoint.
	BaseURL string `mapstructure:"base_url"`
	// APIKeys is the key pool. Entries may be "${ENV_VAR}" references.
	APIKeys []string `mapstructure:"api_keys"`
	// Models maps capability (partner, tutor, summary, homework) to model ID.
	Models      map[string]string `mapstructure:"models"`
	Temperature float64           `mapstructure:"temperature"`
}

// SpeechConfig selects the transcription and synthesis backends.
type SpeechConfig struct {
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Synthesis     SynthesisConfig     `mapstructure:"synthesis"`
}

// TranscriptionConfig configures speech-to-text.
type TranscriptionConfig struct {
	Backend string   `mapstructure:"backend"` // "groq", "openai" or "local"
	BaseURL string   `mapstructure:"base_url"`
	Model   string   `mapstructure:"model"`
	APIKeys []string `mapstructure:"api_keys"`
	// LanguageHint sends the tutoring language with each request.
	LanguageHint bool        `mapstructure:"language_hint"`
	Local        LocalConfig `mapstructure:"local"`
}

// LocalConfig holds self-hosted whisper settings.
type LocalConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	WhisperType string `mapstructure:"whisper_type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	VADFilter   bool   `mapstructure:"vad_filter"`
}

// SynthesisConfig configures text-to-speech.
type SynthesisConfig struct {
	Backend string   `mapstructure:"backend"` // "openai" or "piper"
	BaseURL string   `mapstructure:"base_url"`
	Model   string   `mapstructure:"model"`
	APIKeys []string `mapstructure:"api_keys"`
	// Format is the single audio format every segment uses: "mp3" or "pcm".
	Format string      `mapstructure:"format"`
	Piper  PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"`
	// SampleRate is the output rate of every segment. Voices streaming at
	// another rate are resampled.
	SampleRate int `mapstructure:"sample_rate"`
}

// HTTPClientConfig bounds outbound provider calls.
type HTTPClientConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/gRPC collector address. Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Insecure     bool   `mapstructure:"insecure"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./tandem.yaml, ./configs/tandem.yaml, /etc/tandem/tandem.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tandem")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tandem")
	}

	// Environment variables: TANDEM_SERVER_HEALTH_PORT, TANDEM_MODELS_DEFAULT_PROVIDER, etc.
	v.SetEnvPrefix("TANDEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional; env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.resolveSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.max_upload_bytes", 25<<20)

	v.SetDefault("models.default_provider", "groq")
	v.SetDefault("models.key_strategy", "round_robin")
	v.SetDefault("models.providers.groq.api_keys", []string{"${GROQ_API_KEY}"})
	v.SetDefault("models.providers.openai.api_keys", []string{"${OPENAI_API_KEY}"})
	v.SetDefault("models.providers.anthropic.api_keys", []string{"${ANTHROPIC_API_KEY}"})
	v.SetDefault("models.providers.gemini.api_keys", []string{"${GEMINI_API_KEY}"})
	v.SetDefault("models.providers.local.base_url", "http://localhost:11434")

	v.SetDefault("speech.transcription.backend", "groq")
	v.SetDefault("speech.transcription.api_keys", []string{"${GROQ_API_KEY}"})
	v.SetDefault("speech.transcription.language_hint", true)
	v.SetDefault("speech.transcription.local.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("speech.transcription.local.whisper_type", "openai")
	v.SetDefault("speech.synthesis.backend", "openai")
	v.SetDefault("speech.synthesis.model", "tts-1")
	v.SetDefault("speech.synthesis.format", "mp3")
	v.SetDefault("speech.synthesis.api_keys", []string{"${OPENAI_API_KEY}"})
	v.SetDefault("speech.synthesis.piper.endpoint", "localhost:10200")
	v.SetDefault("speech.synthesis.piper.sample_rate", 22050)

	v.SetDefault("http_client.timeout", 60*time.Second)
	v.SetDefault("http_client.max_retries", 2)
	v.SetDefault("http_client.requests_per_second", 0)

	v.SetDefault("telemetry.service_name", "tandem")
	v.SetDefault("telemetry.insecure", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// resolveSecrets expands "${VAR}" references in every key pool.
func (c *Config) resolveSecrets() {
	for name, p := range c.Models.Providers {
		p.APIKeys = resolveEnvRefs(p.APIKeys)
		c.Models.Providers[name] = p
	}
	c.Speech.Transcription.APIKeys = resolveEnvRefs(c.Speech.Transcription.APIKeys)
	c.Speech.Synthesis.APIKeys = resolveEnvRefs(c.Speech.Synthesis.APIKeys)
}

// Validate rejects unknown backends before anything starts.
func (c *Config) Validate() error {
	switch c.Speech.Transcription.Backend {
	case "groq", "openai", "local":
	default:
		return fmt.Errorf("unknown transcription backend %q", c.Speech.Transcription.Backend)
	}
	switch c.Speech.Synthesis.Backend {
	case "openai", "piper":
	default:
		return fmt.Errorf("unknown synthesis backend %q", c.Speech.Synthesis.Backend)
	}
	switch c.Speech.Synthesis.Format {
	case "mp3", "pcm":
	default:
		return fmt.Errorf("unsupported synthesis format %q (want mp3 or pcm)", c.Speech.Synthesis.Format)
	}
	if c.Speech.Synthesis.Backend == "piper" && c.Speech.Synthesis.Format != "pcm" {
		return fmt.Errorf("piper synthesis produces raw PCM; set speech.synthesis.format to pcm")
	}
	if _, ok := c.Models.Providers[strings.ToLower(c.Models.DefaultProvider)]; !ok {
		return fmt.Errorf("default provider %q is not configured", c.Models.DefaultProvider)
	}
	return nil
}

// resolveEnvRefs resolves each entry and drops the ones left empty.
func resolveEnvRefs(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if r := resolveEnvRef(v); r != "" && !strings.HasPrefix(r, "${") {
			out = append(out, r)
		}
	}
	return out
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
