package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrWong99/aura/internal/assistant"
	"github.com/MrWong99/aura/internal/config"
	"github.com/MrWong99/aura/internal/health"
	"github.com/MrWong99/aura/internal/resilience"
	"github.com/MrWong99/aura/pkg/provider/image"
	"github.com/MrWong99/aura/pkg/provider/llm"
	"github.com/MrWong99/aura/pkg/provider/stt"
	"github.com/MrWong99/aura/pkg/provider/tts"
)

// Providers holds one value per provider slot. Nil means the provider is not
// configured. Built by [BuildProviders] or assembled by hand in tests.
type Providers struct {
	LLM       llm.Provider
	STT       stt.Provider
	TTS       tts.Provider
	Image     image.Generator
	Captioner image.Captioner
	Uploader  image.Uploader

	// Names label metrics with the configured provider names.
	Names assistant.ProviderNames

	// STTName and TTSName label speech metrics.
	STTName string
	TTSName string

	// Checks are readiness checks for the configured providers.
	Checks []health.Checker

	// closers release provider resources such as a loaded whisper model.
	closers []func() error
}

// fallbackConfig is used for every provider group.
var fallbackConfig = resilience.FallbackConfig{
	CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 3},
}

// BuildProviders instantiates every provider named in cfg through reg.
// The LLM, STT and TTS are wrapped in a fallback group when fallbacks are
// configured; each group is also registered as a readiness check.
func BuildProviders(cfg *config.Config, reg *config.Registry) (*Providers, error) {
	ps := &Providers{}
	pc := cfg.Providers

	// ── LLM ──────────────────────────────────────────────────────────────────
	primary, err := reg.CreateLLM(pc.LLM)
	if err != nil {
		return nil, fmt.Errorf("app: create llm provider %q: %w", pc.LLM.Name, err)
	}
	ps.LLM = primary
	ps.Names.LLM = pc.LLM.Name
	if len(pc.LLMFallbacks) > 0 {
		group := resilience.NewLLMFallback(primary, pc.LLM.Name, fallbackConfig)
		for _, entry := range pc.LLMFallbacks {
			p, err := reg.CreateLLM(entry)
			if err != nil {
				return nil, fmt.Errorf("app: create llm fallback %q: %w", entry.Name, err)
			}
			group.AddFallback(entry.Name, p)
		}
		ps.LLM = group
		ps.Checks = append(ps.Checks, health.CircuitCheck("llm", group.Group()))
	}
	slog.Info("provider created", "kind", "llm", "name", pc.LLM.Name, "fallbacks", len(pc.LLMFallbacks))

	// ── Speech ───────────────────────────────────────────────────────────────
	if pc.STT.Configured() {
		p, err := reg.CreateSTT(pc.STT)
		if err != nil {
			return nil, fmt.Errorf("app: create stt provider %q: %w", pc.STT.Name, err)
		}
		ps.addCloser(p)
		ps.STT = p
		ps.STTName = pc.STT.Name
		if len(pc.STTFallbacks) > 0 {
			group := resilience.NewSTTFallback(p, pc.STT.Name, fallbackConfig)
			for _, entry := range pc.STTFallbacks {
				fb, err := reg.CreateSTT(entry)
				if err != nil {
					ps.Close()
					return nil, fmt.Errorf("app: create stt fallback %q: %w", entry.Name, err)
				}
				ps.addCloser(fb)
				group.AddFallback(entry.Name, fb)
			}
			ps.STT = group
			ps.Checks = append(ps.Checks, health.CircuitCheck("stt", group.Group()))
		}
		slog.Info("provider created", "kind", "stt", "name", pc.STT.Name, "fallbacks", len(pc.STTFallbacks))
	}

	if pc.TTS.Configured() {
		p, err := reg.CreateTTS(pc.TTS)
		if err != nil {
			ps.Close()
			return nil, fmt.Errorf("app: create tts provider %q: %w", pc.TTS.Name, err)
		}
		ps.TTS = p
		ps.TTSName = pc.TTS.Name
		if len(pc.TTSFallbacks) > 0 {
			group := resilience.NewTTSFallback(p, pc.TTS.Name, fallbackConfig)
			for _, entry := range pc.TTSFallbacks {
				fb, err := reg.CreateTTS(entry)
				if err != nil {
					ps.Close()
					return nil, fmt.Errorf("app: create tts fallback %q: %w", entry.Name, err)
				}
				group.AddFallback(entry.Name, fb)
			}
			ps.TTS = group
			ps.Checks = append(ps.Checks, health.CircuitCheck("tts", group.Group()))
		}
		slog.Info("provider created", "kind", "tts", "name", pc.TTS.Name, "fallbacks", len(pc.TTSFallbacks))
	}

	// ── Images (optional) ────────────────────────────────────────────────────
	if pc.Image.Configured() {
		if ps.Image, err = optional(reg.CreateImage, pc.Image, "image"); err != nil {
			return nil, err
		}
		if ps.Image != nil {
			ps.Names.Image = pc.Image.Name
		}
	}
	if pc.Captioner.Configured() {
		if ps.Captioner, err = optional(reg.CreateCaptioner, pc.Captioner, "captioner"); err != nil {
			return nil, err
		}
		if ps.Captioner != nil {
			ps.Names.Captioner = pc.Captioner.Name
		}
	}
	if pc.Uploader.Configured() {
		if ps.Uploader, err = optional(reg.CreateUploader, pc.Uploader, "uploader"); err != nil {
			return nil, err
		}
		if ps.Uploader != nil {
			ps.Names.Uploader = pc.Uploader.Name
		}
	}

	return ps, nil
}

// optional creates a provider for a feature the assistant can do without.
// An unregistered name only disables the feature; construction errors are
// returned.
func optional[T any](create func(config.ProviderEntry) (T, error), entry config.ProviderEntry, kind string) (T, error) {
	p, err := create(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("provider not available, feature disabled", "kind", kind, "name", entry.Name)
		var zero T
		return zero, nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("app: create %s provider %q: %w", kind, entry.Name, err)
	}
	slog.Info("provider created", "kind", kind, "name", entry.Name)
	return p, nil
}

// addCloser remembers p for Close when it holds resources, such as a loaded
// whisper model.
func (ps *Providers) addCloser(p any) {
	if c, ok := p.(interface{ Close() error }); ok {
		ps.closers = append(ps.closers, c.Close)
	}
}

// Close releases provider resources.
func (ps *Providers) Close() error {
	var errs []error
	for _, c := range ps.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
