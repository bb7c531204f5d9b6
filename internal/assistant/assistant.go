// Package assistant is the Aura orchestrator. It owns the conversation state
// and, for every user utterance, runs language detection, intent
// classification and dispatch to the chat model, the PDF exporter and the
// image providers, then delivers the outcome through the console and the
// [speech.Speaker].
//
// Every collaborator failure is turned into an apology for the user; nothing
// a collaborator returns ends the session. The only ways out of [Assistant.Run]
// are an exit phrase, the end of the input stream and context cancellation.
//
// An Assistant handles one turn at a time and is not safe for concurrent use.
package assistant

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/MrWong99/aura/internal/conversation"
	"github.com/MrWong99/aura/internal/dialog"
	"github.com/MrWong99/aura/internal/intent"
	"github.com/MrWong99/aura/internal/language"
	"github.com/MrWong99/aura/internal/observe"
	"github.com/MrWong99/aura/internal/speech"
	"github.com/MrWong99/aura/pkg/provider/image"
	"github.com/MrWong99/aura/pkg/provider/llm"
)

// State is the position of the assistant in its input loop.
type State int

const (
	Idle State = iota
	AwaitingInput
	Dispatching
	Exited
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInput:
		return "awaiting_input"
	case Dispatching:
		return "dispatching"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome tells the caller of HandleInput whether to keep going.
type Outcome int

const (
	Continue Outcome = iota
	Exit
)

// Exporter writes text to a PDF file. [pdfexport.Exporter] implements it.
type Exporter interface {
	Save(text, path string) error
}

// ProviderNames label provider metrics.
type ProviderNames struct {
	LLM       string
	Image     string
	Captioner string
	Uploader  string
}

const (
	defaultName        = "Aura"
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
)

// Assistant is the orchestrator. Create one with [New].
type Assistant struct {
	name        string
	temperature float64
	maxTokens   int

	llm       llm.Provider
	listener  speech.Listener
	speaker   speech.Speaker
	muted     bool
	out       io.Writer
	generator image.Generator
	captioner image.Captioner
	uploader  image.Uploader
	picker    dialog.Picker
	exporter  Exporter
	store     conversation.Store

	classifier *intent.Classifier
	detector   *language.Detector
	exit       exitMatcher

	metrics *observe.Metrics
	names   ProviderNames

	conv  conversation.State
	state atomic.Int32
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithName sets the assistant name used in prompts and console output.
// Defaults to "Aura".
func WithName(name string) Option {
	return func(a *Assistant) {
		if name != "" {
			a.name = name
		}
	}
}

// WithSampling sets the completion temperature and token limit. Defaults to
// 0.7 and 1024.
func WithSampling(temperature float64, maxTokens int) Option {
	return func(a *Assistant) {
		a.temperature = temperature
		a.maxTokens = maxTokens
	}
}

// WithSpeaker sets the voice used for replies. Without one, speech is
// disabled: replies are only printed and spoken notices are printed with a
// "speaking disabled" marker.
func WithSpeaker(s speech.Speaker) Option {
	return func(a *Assistant) {
		if s != nil {
			a.speaker = s
			a.muted = false
		}
	}
}

// WithOutput sets where console output goes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *Assistant) { a.out = w }
}

// WithImageGenerator enables image generation.
func WithImageGenerator(g image.Generator) Option {
	return func(a *Assistant) { a.generator = g }
}

// WithCaptioner enables image description.
func WithCaptioner(c image.Captioner) Option {
	return func(a *Assistant) { a.captioner = c }
}

// WithUploader makes image description upload local files first and caption
// the public URL.
func WithUploader(u image.Uploader) Option {
	return func(a *Assistant) { a.uploader = u }
}

// WithPicker sets the file picker used by the save and describe flows.
func WithPicker(p dialog.Picker) Option {
	return func(a *Assistant) { a.picker = p }
}

// WithExporter sets the PDF exporter used by the save flow.
func WithExporter(e Exporter) Option {
	return func(a *Assistant) { a.exporter = e }
}

// WithHistoryStore loads the chat history from s when Run starts and saves it
// when Run ends.
func WithHistoryStore(s conversation.Store) Option {
	return func(a *Assistant) { a.store = s }
}

// WithClassifier replaces the default intent classifier.
func WithClassifier(c *intent.Classifier) Option {
	return func(a *Assistant) { a.classifier = c }
}

// WithExitPhrases replaces [DefaultExitPhrases]. Phrases must be lower case.
// With fuzzy set, phrases also match words that sound alike.
func WithExitPhrases(phrases []string, fuzzy bool) Option {
	return func(a *Assistant) {
		if len(phrases) > 0 {
			a.exit.phrases = phrases
		}
		a.exit.fuzzy = fuzzy
	}
}

// WithMetrics records turn and provider metrics on m.
func WithMetrics(m *observe.Metrics, names ProviderNames) Option {
	return func(a *Assistant) {
		a.metrics = m
		a.names = names
	}
}

// New returns an Assistant that answers with model and reads user input from
// listener.
func New(model llm.Provider, listener speech.Listener, opts ...Option) *Assistant {
	a := &Assistant{
		name:        defaultName,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		llm:         model,
		listener:    listener,
		out:         os.Stdout,
		muted:       true,
		classifier:  intent.New(),
		detector:    language.NewDetector(),
		exit:        exitMatcher{phrases: DefaultExitPhrases},
	}
	for _, o := range opts {
		o(a)
	}
	if a.speaker == nil {
		a.speaker = speech.NewPrinter(a.out, a.name)
	}
	return a
}

// State returns the current loop state. Safe to call from any goroutine.
func (a *Assistant) State() State { return State(a.state.Load()) }

func (a *Assistant) setState(s State) { a.state.Store(int32(s)) }

// History returns a copy of the conversation history.
func (a *Assistant) History() []conversation.Turn { return a.conv.History() }

// LastMain returns the most recent main response, the text "save that"
// refers to.
func (a *Assistant) LastMain() (string, bool) { return a.conv.LastMain() }
