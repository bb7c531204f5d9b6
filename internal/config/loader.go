package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":       {"groq", "openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "llamacpp"},
	"stt":       {"whisper", "whisper-native"},
	"tts":       {"gtts", "openai", "elevenlabs", "coqui"},
	"image":     {"replicate", "openai"},
	"captioner": {"openai"},
	"uploader":  {"imgbb"},
}

// envRef matches ${VAR} references.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. ${VAR} references are replaced with the value of the
// environment variable VAR before decoding; unset variables become empty.
// An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	raw = ExpandEnv(raw)

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandEnv replaces every ${VAR} in raw with the value of VAR.
func ExpandEnv(raw []byte) []byte {
	return envRef.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.LogFormat != "" && !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if !cfg.Server.TraceExporter.IsValid() {
		errs = append(errs, fmt.Errorf("server.trace_exporter %q is invalid; valid values: stdout, or empty to disable", cfg.Server.TraceExporter))
	}

	// Assistant
	a := cfg.Assistant
	if !a.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("assistant.mode %q is invalid; valid values: text, voice", a.Mode))
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		errs = append(errs, fmt.Errorf("assistant.temperature %.2f is out of range [0, 2]", a.Temperature))
	}
	if a.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("assistant.max_tokens %d must not be negative", a.MaxTokens))
	}
	if a.SavePreviousMaxTokens < 1 {
		errs = append(errs, fmt.Errorf("assistant.save_previous_max_tokens %d must be at least 1", a.SavePreviousMaxTokens))
	}

	// Speech
	if cfg.Speech.ListenTimeout <= 0 {
		errs = append(errs, fmt.Errorf("speech.listen_timeout %s must be positive", cfg.Speech.ListenTimeout))
	}
	if cfg.Speech.PhraseTimeLimit <= 0 {
		errs = append(errs, fmt.Errorf("speech.phrase_time_limit %s must be positive", cfg.Speech.PhraseTimeLimit))
	}
	if cfg.Speech.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("speech.sample_rate %d must not be negative", cfg.Speech.SampleRate))
	}

	// Unknown provider names only warn: a third-party registry may add them.
	p := cfg.Providers
	validateProviderName("llm", p.LLM.Name)
	validateProviderName("stt", p.STT.Name)
	validateProviderName("tts", p.TTS.Name)
	validateProviderName("image", p.Image.Name)
	validateProviderName("captioner", p.Captioner.Name)
	validateProviderName("uploader", p.Uploader.Name)
	for i, fb := range p.LLMFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
		}
		validateProviderName("llm", fb.Name)
	}
	for i, fb := range p.STTFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.stt_fallbacks[%d].name is required", i))
		}
		validateProviderName("stt", fb.Name)
	}
	if len(p.STTFallbacks) > 0 && !p.STT.Configured() {
		errs = append(errs, errors.New("providers.stt_fallbacks requires providers.stt"))
	}
	for i, fb := range p.TTSFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.tts_fallbacks[%d].name is required", i))
		}
		validateProviderName("tts", fb.Name)
	}

	// Mode ↔ provider cross-validation
	if !p.LLM.Configured() {
		errs = append(errs, errors.New("providers.llm is required"))
	}
	if a.Mode == ModeVoice && !p.STT.Configured() {
		errs = append(errs, errors.New("assistant.mode \"voice\" requires an STT provider but providers.stt is not configured"))
	}
	if a.Speak && !p.TTS.Configured() {
		errs = append(errs, errors.New("assistant.speak requires a TTS provider but providers.tts is not configured"))
	}
	if p.Uploader.Configured() && !p.Captioner.Configured() {
		slog.Warn("providers.uploader is configured without providers.captioner; uploads will never be used")
	}

	// History
	if cfg.History.PostgresDSN != "" && a.HistoryPath != "" {
		slog.Warn("both history.postgres_dsn and assistant.history_path are set; using PostgreSQL")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or a third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
