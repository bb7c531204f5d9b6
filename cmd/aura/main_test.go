package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/aura/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogWarn, config.LogJSON)
	logger.Info("dropped")
	logger.Warn("kept", "provider", "groq")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "kept" || rec["provider"] != "groq" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_TextLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogDebug, config.LogText)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") || strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("output = %q, want uncoloured text", buf.String())
	}

	if newLogger(&buf, "bogus", config.LogText).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := loadConfig(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config: %v", err)
	}
	if cfg.Assistant.Name != "Aura" {
		t.Errorf("Name = %q, want defaults", cfg.Assistant.Name)
	}

	if _, err := loadConfig(missing, true); err == nil {
		t.Error("explicit missing config should fail")
	}

	path := filepath.Join(t.TempDir(), "aura.yaml")
	if err := os.WriteFile(path, []byte("assistant:\n  name: Nova\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Assistant.Name != "Nova" {
		t.Errorf("Name = %q, want Nova", cfg.Assistant.Name)
	}
}

func TestRegisterBuiltinProviders(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "gtts"}); err != nil {
		t.Errorf("gtts: %v", err)
	}
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "groq", APIKey: "gsk-test", Model: "llama3-70b-8192"}); err != nil {
		t.Errorf("groq: %v", err)
	}
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"}); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "whisper", BaseURL: "http://localhost:8080"}); err != nil {
		t.Errorf("whisper: %v", err)
	}
	if _, err := reg.CreateUploader(config.ProviderEntry{Name: "imgbb", APIKey: "key"}); err != nil {
		t.Errorf("imgbb: %v", err)
	}

	// Constructor validation surfaces as a creation error.
	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "openai"}); err == nil {
		t.Error("openai tts without key should fail")
	}
	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "whisper"}); err == nil {
		t.Error("whisper without base_url should fail")
	}

	for kind, names := range config.ValidProviderNames {
		for _, name := range names {
			if kind == "stt" && name == "whisper-native" {
				continue // loads a model file
			}
			_, err := create(reg, kind, config.ProviderEntry{Name: name})
			if errors.Is(err, config.ErrProviderNotRegistered) {
				t.Errorf("%s/%s is listed as valid but not registered", kind, name)
			}
		}
	}
}

func create(reg *config.Registry, kind string, entry config.ProviderEntry) (any, error) {
	switch kind {
	case "llm":
		return reg.CreateLLM(entry)
	case "stt":
		return reg.CreateSTT(entry)
	case "tts":
		return reg.CreateTTS(entry)
	case "image":
		return reg.CreateImage(entry)
	case "captioner":
		return reg.CreateCaptioner(entry)
	case "uploader":
		return reg.CreateUploader(entry)
	}
	return nil, nil
}
