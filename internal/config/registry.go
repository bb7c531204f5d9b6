package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/aura/pkg/provider/image"
	"github.com/MrWong99/aura/pkg/provider/llm"
	"github.com/MrWong99/aura/pkg/provider/stt"
	"github.com/MrWong99/aura/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Factory builds a provider from its configuration entry.
type Factory[T any] func(ProviderEntry) (T, error)

// factories is the per-kind name → constructor table.
type factories[T any] struct {
	kind string
	m    map[string]Factory[T]
}

func newFactories[T any](kind string) factories[T] {
	return factories[T]{kind: kind, m: make(map[string]Factory[T])}
}

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	llm       factories[llm.Provider]
	stt       factories[stt.Provider]
	tts       factories[tts.Provider]
	image     factories[image.Generator]
	captioner factories[image.Captioner]
	uploader  factories[image.Uploader]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:       newFactories[llm.Provider]("llm"),
		stt:       newFactories[stt.Provider]("stt"),
		tts:       newFactories[tts.Provider]("tts"),
		image:     newFactories[image.Generator]("image"),
		captioner: newFactories[image.Captioner]("captioner"),
		uploader:  newFactories[image.Uploader]("uploader"),
	}
}

func register[T any](r *Registry, f factories[T], name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.m[name] = factory
}

func create[T any](r *Registry, f factories[T], entry ProviderEntry) (T, error) {
	r.mu.RLock()
	factory, ok := f.m[entry.Name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, f.kind, entry.Name)
	}
	return factory(entry)
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory Factory[llm.Provider]) {
	register(r, r.llm, name, factory)
}

// RegisterSTT registers an STT provider factory under name.
func (r *Registry) RegisterSTT(name string, factory Factory[stt.Provider]) {
	register(r, r.stt, name, factory)
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory Factory[tts.Provider]) {
	register(r, r.tts, name, factory)
}

// RegisterImage registers an image generator factory under name.
func (r *Registry) RegisterImage(name string, factory Factory[image.Generator]) {
	register(r, r.image, name, factory)
}

// RegisterCaptioner registers an image captioner factory under name.
func (r *Registry) RegisterCaptioner(name string, factory Factory[image.Captioner]) {
	register(r, r.captioner, name, factory)
}

// RegisterUploader registers an image uploader factory under name.
func (r *Registry) RegisterUploader(name string, factory Factory[image.Uploader]) {
	register(r, r.uploader, name, factory)
}

// CreateLLM instantiates an LLM provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return create(r, r.llm, entry)
}

// CreateSTT instantiates an STT provider using the factory registered under entry.Name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	return create(r, r.stt, entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	return create(r, r.tts, entry)
}

// CreateImage instantiates an image generator using the factory registered under entry.Name.
func (r *Registry) CreateImage(entry ProviderEntry) (image.Generator, error) {
	return create(r, r.image, entry)
}

// CreateCaptioner instantiates an image captioner using the factory registered under entry.Name.
func (r *Registry) CreateCaptioner(entry ProviderEntry) (image.Captioner, error) {
	return create(r, r.captioner, entry)
}

// CreateUploader instantiates an image uploader using the factory registered under entry.Name.
func (r *Registry) CreateUploader(entry ProviderEntry) (image.Uploader, error) {
	return create(r, r.uploader, entry)
}
