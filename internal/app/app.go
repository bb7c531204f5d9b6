// Package app wires Aura's subsystems into a running application.
//
// New builds the speech front end, dialogs, PDF exporter, history store and
// the assistant itself from the config and a set of [Providers]. Run drives
// the conversation loop and, when configured, the diagnostics server side by
// side. Shutdown releases everything in reverse order.
//
// Tests inject doubles through the functional options (WithInput,
// WithHistoryStore, WithPlayer, ...). When an option is not provided, New
// creates the real implementation from the config.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/aura/internal/assistant"
	"github.com/MrWong99/aura/internal/config"
	"github.com/MrWong99/aura/internal/conversation"
	"github.com/MrWong99/aura/internal/conversation/postgres"
	"github.com/MrWong99/aura/internal/dialog"
	"github.com/MrWong99/aura/internal/health"
	"github.com/MrWong99/aura/internal/intent"
	"github.com/MrWong99/aura/internal/observe"
	"github.com/MrWong99/aura/internal/pdfexport"
	"github.com/MrWong99/aura/internal/speech"
	"github.com/MrWong99/aura/pkg/audio"
)

// shutdownGrace bounds the diagnostics server shutdown.
const shutdownGrace = 5 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	in      *bufio.Reader
	out     io.Writer
	metrics *observe.Metrics

	recorder speech.Recorder
	player   speech.Player
	picker   dialog.Picker
	exporter assistant.Exporter
	history  conversation.Store

	assistant *assistant.Assistant
	checks    []health.Checker
	listener  net.Listener

	// closers are called in reverse order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithInput sets the console input. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = bufio.NewReader(r) }
}

// WithOutput sets the console output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithMetrics sets the metric instruments. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithRecorder injects the microphone used in voice mode.
func WithRecorder(r speech.Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithPlayer injects the audio player used for spoken replies.
func WithPlayer(p speech.Player) Option {
	return func(a *App) { a.player = p }
}

// WithPicker injects the file picker instead of the terminal prompts.
func WithPicker(p dialog.Picker) Option {
	return func(a *App) { a.picker = p }
}

// WithExporter injects the PDF exporter.
func WithExporter(e assistant.Exporter) Option {
	return func(a *App) { a.exporter = e }
}

// WithHistoryStore injects the history store instead of creating one from
// the config.
func WithHistoryStore(s conversation.Store) Option {
	return func(a *App) { a.history = s }
}

// WithListener makes the diagnostics server accept on l instead of
// listening on server.listen_addr.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App. providers must at least carry an LLM; voice mode also
// needs STT, and spoken replies need TTS.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.LLM == nil {
		return nil, errors.New("app: an llm provider is required")
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.in == nil {
		a.in = bufio.NewReader(os.Stdin)
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	a.closers = append(a.closers, providers.Close)
	a.checks = append(a.checks, providers.Checks...)

	if err := a.initHistory(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("app: init history: %w", err)
	}

	speaker := a.initSpeaker()

	listener, err := a.initListener(speaker)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app: init listener: %w", err)
	}

	if a.picker == nil {
		a.picker = dialog.NewTerminal(a.in, a.out)
	}
	if a.exporter == nil {
		a.exporter = pdfexport.New(pdfexport.WithAuthor(cfg.Assistant.Name))
	}

	a.assistant = assistant.New(providers.LLM, listener, a.assistantOptions(speaker)...)
	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initHistory selects PostgreSQL when a DSN is configured, else the JSON file
// at assistant.history_path. Without either the history is not persisted.
func (a *App) initHistory(ctx context.Context) error {
	if a.history != nil {
		return nil
	}
	switch {
	case a.cfg.History.PostgresDSN != "":
		store, err := postgres.NewStore(ctx, a.cfg.History.PostgresDSN)
		if err != nil {
			return err
		}
		a.history = store
		a.closers = append(a.closers, func() error { store.Close(); return nil })
		a.checks = append(a.checks, health.Checker{Name: "history", Check: store.Ping})
		slog.Info("chat history stored in postgres")
	case a.cfg.Assistant.HistoryPath != "":
		a.history = conversation.NewFileStore(a.cfg.Assistant.HistoryPath)
		slog.Info("chat history stored in file", "path", a.cfg.Assistant.HistoryPath)
	}
	return nil
}

// initSpeaker returns the voice speaker, or nil when replies are only printed.
func (a *App) initSpeaker() speech.Speaker {
	if !a.cfg.Assistant.Speak {
		return nil
	}
	if a.providers.TTS == nil {
		slog.Warn("speech output enabled but no tts provider configured; printing only")
		return nil
	}
	if a.player == nil {
		a.player = audio.NewPlayer()
	}
	return speech.NewVoiceSpeaker(a.providers.TTS, a.player,
		speech.WithTempDir(a.cfg.Speech.TempDir),
		speech.WithSynthesisMetrics(a.metrics, a.providers.TTSName),
	)
}

// initListener builds the text or microphone front end.
func (a *App) initListener(speaker speech.Speaker) (speech.Listener, error) {
	name := a.cfg.Assistant.Name
	if a.cfg.Assistant.Mode != config.ModeVoice {
		return speech.NewTextListener(a.in, a.out, name), nil
	}
	if a.providers.STT == nil {
		return nil, errors.New("voice mode requires an stt provider")
	}

	if a.recorder == nil {
		var ropts []audio.RecorderOption
		if a.cfg.Speech.SampleRate > 0 {
			ropts = append(ropts, audio.WithDeviceRate(a.cfg.Speech.SampleRate))
		}
		rec := audio.NewRecorder(ropts...)
		if err := rec.Open(); err != nil {
			return nil, err
		}
		a.recorder = rec
		a.closers = append(a.closers, rec.Close)
	}

	// Listening prompts are spoken; print them when speech output is off.
	if speaker == nil {
		speaker = speech.NewPrinter(a.out, name)
	}
	return speech.NewMicListener(a.recorder, a.providers.STT, speaker, a.out,
		speech.WithTimeouts(a.cfg.Speech.ListenTimeout, a.cfg.Speech.PhraseTimeLimit),
		speech.WithMetrics(a.metrics, a.providers.STTName),
	), nil
}

func (a *App) assistantOptions(speaker speech.Speaker) []assistant.Option {
	ac := a.cfg.Assistant
	opts := []assistant.Option{
		assistant.WithName(ac.Name),
		assistant.WithOutput(a.out),
		assistant.WithSampling(ac.Temperature, ac.MaxTokens),
		assistant.WithClassifier(intent.New(intent.WithMaxSavePreviousTokens(ac.SavePreviousMaxTokens))),
		assistant.WithExitPhrases(assistant.DefaultExitPhrases, ac.FuzzyExit),
		assistant.WithPicker(a.picker),
		assistant.WithExporter(a.exporter),
		assistant.WithMetrics(a.metrics, a.providers.Names),
	}
	if speaker != nil {
		opts = append(opts, assistant.WithSpeaker(speaker))
	}
	if a.history != nil {
		opts = append(opts, assistant.WithHistoryStore(a.history))
	}
	if a.providers.Image != nil {
		opts = append(opts, assistant.WithImageGenerator(a.providers.Image))
	}
	if a.providers.Captioner != nil {
		opts = append(opts, assistant.WithCaptioner(a.providers.Captioner))
	}
	if a.providers.Uploader != nil {
		opts = append(opts, assistant.WithUploader(a.providers.Uploader))
	}
	return opts
}

// Assistant returns the wired assistant.
func (a *App) Assistant() *assistant.Assistant { return a.assistant }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run drives the conversation until the user says goodbye, the input ends,
// or ctx is cancelled. The diagnostics server, when enabled, runs beside the
// loop and stops with it. A normal goodbye returns nil.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})

	srv, ln, err := a.diagnostics()
	if err != nil {
		return fmt.Errorf("app: diagnostics server: %w", err)
	}
	if srv != nil {
		g.Go(func() error {
			slog.Info("diagnostics server listening", "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: diagnostics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-loopDone:
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer close(loopDone)
		return a.assistant.Run(gctx)
	})

	return g.Wait()
}

// diagnostics builds the health and metrics server. It returns a nil server
// when no listen address is configured.
func (a *App) diagnostics() (*http.Server, net.Listener, error) {
	ln := a.listener
	if ln == nil {
		if a.cfg.Server.ListenAddr == "" {
			return nil, nil, nil
		}
		var err error
		if ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr); err != nil {
			return nil, nil, err
		}
	}
	srv := &http.Server{
		Handler:           newDiagnosticsMux(a.checks, a.status, a.metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv, ln, nil
}

// status feeds /statusz.
func (a *App) status() map[string]any {
	return map[string]any{
		"assistant": a.cfg.Assistant.Name,
		"mode":      string(a.cfg.Assistant.Mode),
		"state":     a.assistant.State().String(),
		"llm":       a.providers.Names.LLM,
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases all resources in reverse creation order. If ctx expires
// first, the remaining closers are skipped and the context error returned.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i := len(a.closers) - 1; i >= 0; i-- {
			if ctxErr := ctx.Err(); ctxErr != nil {
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				err = ctxErr
				return
			}
			if cerr := a.closers[i](); cerr != nil {
				slog.Warn("closer error", "index", i, "err", cerr)
			}
		}
		slog.Info("shutdown complete")
	})
	return err
}

// close releases what a failed New has already opened.
func (a *App) close() {
	_ = a.Shutdown(context.Background())
}
