package main

import (
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/aura/internal/config"
	"github.com/MrWong99/aura/pkg/provider/image"
	"github.com/MrWong99/aura/pkg/provider/image/imgbb"
	oaimage "github.com/MrWong99/aura/pkg/provider/image/openai"
	"github.com/MrWong99/aura/pkg/provider/image/replicate"
	"github.com/MrWong99/aura/pkg/provider/llm"
	"github.com/MrWong99/aura/pkg/provider/llm/anyllm"
	oaillm "github.com/MrWong99/aura/pkg/provider/llm/openai"
	"github.com/MrWong99/aura/pkg/provider/stt"
	"github.com/MrWong99/aura/pkg/provider/stt/whisper"
	"github.com/MrWong99/aura/pkg/provider/tts"
	"github.com/MrWong99/aura/pkg/provider/tts/coqui"
	"github.com/MrWong99/aura/pkg/provider/tts/elevenlabs"
	"github.com/MrWong99/aura/pkg/provider/tts/gtts"
	oaitts "github.com/MrWong99/aura/pkg/provider/tts/openai"
)

// registerBuiltinProviders wires all built-in provider factories into reg.
// The names match [config.ValidProviderNames].
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai goes through the official SDK; every other vendor through
	// any-llm-go, which reads <VENDOR>_API_KEY when no key is configured.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		if org := entry.StringOption("organization", ""); org != "" {
			opts = append(opts, oaillm.WithOrganization(org))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	for _, vendor := range []string{"groq", "anthropic", "gemini", "ollama", "deepseek", "mistral", "llamacpp"} {
		reg.RegisterLLM(vendor, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(vendor, entry.Model, opts...)
		})
	}

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if secs := entry.IntOption("timeout_seconds", 0); secs > 0 {
			opts = append(opts, whisper.WithTimeout(time.Duration(secs)*time.Second))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.StringOption("model_path", entry.Model)
		var opts []whisper.NativeOption
		if n := entry.IntOption("threads", 0); n > 0 {
			opts = append(opts, whisper.WithThreads(uint(n)))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("gtts", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []gtts.Option
		if tld := entry.StringOption("tld", ""); tld != "" {
			opts = append(opts, gtts.WithTLD(tld))
		}
		if entry.BaseURL != "" {
			opts = append(opts, gtts.WithEndpoint(entry.BaseURL))
		}
		return gtts.New(opts...), nil
	})

	reg.RegisterTTS("openai", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []oaitts.Option
		if entry.Model != "" {
			opts = append(opts, oaitts.WithModel(entry.Model))
		}
		if voice := entry.StringOption("voice", ""); voice != "" {
			opts = append(opts, oaitts.WithVoice(voice))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaitts.WithBaseURL(entry.BaseURL))
		}
		return oaitts.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if voice := entry.StringOption("voice", ""); voice != "" {
			opts = append(opts, elevenlabs.WithVoice(voice))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithEndpoint(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if mode := entry.StringOption("api_mode", ""); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		if speaker := entry.StringOption("speaker", ""); speaker != "" {
			opts = append(opts, coqui.WithSpeaker(speaker))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	// ── Images ────────────────────────────────────────────────────────────────

	reg.RegisterImage("replicate", func(entry config.ProviderEntry) (image.Generator, error) {
		var opts []replicate.Option
		if v := entry.StringOption("version", entry.Model); v != "" {
			opts = append(opts, replicate.WithVersion(v))
		}
		if entry.BaseURL != "" {
			opts = append(opts, replicate.WithEndpoint(entry.BaseURL))
		}
		return replicate.New(entry.APIKey, opts...)
	})

	reg.RegisterImage("openai", func(entry config.ProviderEntry) (image.Generator, error) {
		return oaimage.NewGenerator(entry.APIKey, openAIImageOptions(entry)...)
	})

	reg.RegisterCaptioner("openai", func(entry config.ProviderEntry) (image.Captioner, error) {
		opts := openAIImageOptions(entry)
		if prompt := entry.StringOption("prompt", ""); prompt != "" {
			opts = append(opts, oaimage.WithPrompt(prompt))
		}
		return oaimage.NewCaptioner(entry.APIKey, opts...)
	})

	reg.RegisterUploader("imgbb", func(entry config.ProviderEntry) (image.Uploader, error) {
		var opts []imgbb.Option
		if secs := entry.IntOption("expiration_seconds", 0); secs > 0 {
			opts = append(opts, imgbb.WithExpiration(time.Duration(secs)*time.Second))
		}
		if entry.BaseURL != "" {
			opts = append(opts, imgbb.WithEndpoint(entry.BaseURL))
		}
		return imgbb.New(entry.APIKey, opts...)
	})

	for kind, names := range config.ValidProviderNames {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

func openAIImageOptions(entry config.ProviderEntry) []oaimage.Option {
	var opts []oaimage.Option
	if entry.Model != "" {
		opts = append(opts, oaimage.WithModel(entry.Model))
	}
	if entry.BaseURL != "" {
		opts = append(opts, oaimage.WithBaseURL(entry.BaseURL))
	}
	return opts
}
