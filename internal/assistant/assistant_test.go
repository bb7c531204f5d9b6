package assistant

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/MrWong99/aura/internal/conversation"
	"github.com/MrWong99/aura/internal/dialog"
	dialogmock "github.com/MrWong99/aura/internal/dialog/mock"
	"github.com/MrWong99/aura/internal/intent"
	speechmock "github.com/MrWong99/aura/internal/speech/mock"
	"github.com/MrWong99/aura/pkg/provider/image"
	imagemock "github.com/MrWong99/aura/pkg/provider/image/mock"
	llmmock "github.com/MrWong99/aura/pkg/provider/llm/mock"
	"github.com/MrWong99/aura/pkg/types"
)

// ── Test doubles ─────────────────────────────────────────────────────────────

type fakeExporter struct {
	mu    sync.Mutex
	err   error
	texts []string
	paths []string
}

func (e *fakeExporter) Save(text, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	e.paths = append(e.paths, path)
	return e.err
}

type memStore struct {
	turns   []conversation.Turn
	loadErr error
	saveErr error
	saved   [][]conversation.Turn
}

func (s *memStore) Load(context.Context) ([]conversation.Turn, error) {
	return s.turns, s.loadErr
}

func (s *memStore) Save(_ context.Context, turns []conversation.Turn) error {
	s.saved = append(s.saved, turns)
	return s.saveErr
}

type harness struct {
	a        *Assistant
	llm      *llmmock.Provider
	speaker  *speechmock.Speaker
	listener *speechmock.Listener
	out      *bytes.Buffer
	img      *imagemock.Provider
	picker   *dialogmock.Picker
	exporter *fakeExporter
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		llm:      &llmmock.Provider{},
		speaker:  &speechmock.Speaker{},
		listener: &speechmock.Listener{},
		out:      &bytes.Buffer{},
		img:      &imagemock.Provider{URL: "https://img.example/cat.png", Description: "A cat on a sofa."},
		picker:   &dialogmock.Picker{Save: "draft", Image: "/tmp/cat.png"},
		exporter: &fakeExporter{},
	}
	base := []Option{
		WithSpeaker(h.speaker),
		WithOutput(h.out),
		WithImageGenerator(h.img),
		WithCaptioner(h.img),
		WithPicker(h.picker),
		WithExporter(h.exporter),
	}
	h.a = New(h.llm, h.listener, append(base, opts...)...)
	return h
}

func (h *harness) handle(t *testing.T, text string) Outcome {
	t.Helper()
	return h.a.HandleInput(context.Background(), text)
}

func assertSpoken(t *testing.T, s *speechmock.Speaker, want ...string) {
	t.Helper()
	if got := s.Texts(); !slices.Equal(got, want) {
		t.Errorf("spoken = %q, want %q", got, want)
	}
}

// ── Input filtering and exit ─────────────────────────────────────────────────

func TestHandleInput_BlankIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, in := range []string{"", "   ", "\t\n"} {
		if got := h.handle(t, in); got != Continue {
			t.Errorf("HandleInput(%q) = %v, want Continue", in, got)
		}
	}
	if len(h.llm.Calls()) != 0 || len(h.speaker.Texts()) != 0 || h.out.Len() != 0 {
		t.Error("blank input must not have side effects")
	}
}

func TestHandleInput_ExitPhrases(t *testing.T) {
	t.Parallel()

	inputs := append(slices.Clone(DefaultExitPhrases), "Please STOP now", "ok alvida dost")
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			if got := h.handle(t, in); got != Exit {
				t.Fatalf("HandleInput(%q) = %v, want Exit", in, got)
			}
			if h.a.State() != Exited {
				t.Errorf("State = %v, want exited", h.a.State())
			}
			if !strings.Contains(h.out.String(), "Aura: Goodbye! Have a great day.") {
				t.Errorf("farewell not printed: %q", h.out.String())
			}
			assertSpoken(t, h.speaker, msgFarewell)
			if len(h.llm.Calls()) != 0 {
				t.Error("exit must not reach the model")
			}
		})
	}
}

func TestHandleInput_ExitBeatsOtherIntents(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if got := h.handle(t, "stop and generate an image"); got != Exit {
		t.Fatalf("HandleInput = %v, want Exit", got)
	}
	if len(h.img.Prompts) != 0 {
		t.Error("image generation must not run after an exit phrase")
	}
}

func TestExitMatcher_Fuzzy(t *testing.T) {
	t.Parallel()

	strict := exitMatcher{phrases: DefaultExitPhrases}
	fuzzy := exitMatcher{phrases: DefaultExitPhrases, fuzzy: true}

	for _, in := range []string{"goodby", "good bye aura"} {
		if strict.matches(in) {
			t.Errorf("strict matcher matched %q", in)
		}
		if !fuzzy.matches(in) {
			t.Errorf("fuzzy matcher did not match %q", in)
		}
	}
	for _, in := range []string{"tell me a story", "what is the weather", "make it quick"} {
		if fuzzy.matches(in) {
			t.Errorf("fuzzy matcher matched %q", in)
		}
	}
}

// ── Chat ─────────────────────────────────────────────────────────────────────

func TestChat_MainAndFollowUp(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: Hello there!\nFollow-up: Anything else?")

	if got := h.handle(t, "hi aura, how are you"); got != Continue {
		t.Fatalf("HandleInput = %v", got)
	}

	want := []conversation.Turn{
		{Role: types.RoleUser, Content: "hi aura, how are you"},
		{Role: types.RoleAssistant, Content: "Hello there!"},
		{Role: types.RoleAssistant, Content: "Anything else?"},
	}
	if got := h.a.History(); !slices.Equal(got, want) {
		t.Errorf("History = %+v, want %+v", got, want)
	}
	if last, ok := h.a.LastMain(); !ok || last != "Hello there!" {
		t.Errorf("LastMain = %q, %v", last, ok)
	}
	if got := h.out.String(); got != "Aura: Hello there!\nAura: Anything else?\n" {
		t.Errorf("output = %q", got)
	}
	assertSpoken(t, h.speaker, "Hello there!", "Anything else?")
	if h.a.State() != Idle {
		t.Errorf("State = %v, want idle", h.a.State())
	}
}

func TestChat_RequestShape(t *testing.T) {
	t.Parallel()

	h := newHarness(t, WithSampling(0.3, 256))
	h.llm.Respond("Response: One.")
	h.handle(t, "count to one")
	h.llm.Respond("Two.")
	h.handle(t, "and now two")

	calls := h.llm.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(calls))
	}
	req := calls[1].Req
	if req.Temperature != 0.3 || req.MaxTokens != 256 {
		t.Errorf("sampling = %v/%d", req.Temperature, req.MaxTokens)
	}
	if !strings.Contains(req.SystemPrompt, "You are Aura") || !strings.Contains(req.SystemPrompt, "naturally in English") {
		t.Errorf("unexpected system prompt %q", req.SystemPrompt)
	}
	wantMsgs := []types.Message{
		{Role: types.RoleUser, Content: "count to one"},
		{Role: types.RoleAssistant, Content: "One."},
		{Role: types.RoleUser, Content: "and now two"},
	}
	if !slices.Equal(req.Messages, wantMsgs) {
		t.Errorf("Messages = %+v, want %+v", req.Messages, wantMsgs)
	}
}

func TestChat_MaxTokensClampedToModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		requested int
		modelMax  int
		want      int
	}{
		{name: "over model limit", requested: 1024, modelMax: 512, want: 512},
		{name: "under model limit", requested: 256, modelMax: 512, want: 256},
		{name: "limit unknown", requested: 1024, modelMax: 0, want: 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, WithSampling(0.7, tt.requested))
			h.llm.ModelCapabilities = types.ModelCapabilities{MaxOutputTokens: tt.modelMax}
			h.llm.Respond("Response: ok")
			h.handle(t, "hello")

			calls := h.llm.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected 1 completion, got %d", len(calls))
			}
			if got := calls[0].Req.MaxTokens; got != tt.want {
				t.Errorf("MaxTokens = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChat_HindiInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: एक बार की बात है")
	h.handle(t, "आप कैसे हैं? मुझे एक कहानी सुनाइए")

	calls := h.llm.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].Req.SystemPrompt, "naturally in Hindi") {
		t.Fatalf("expected a Hindi system prompt, got %+v", calls)
	}
	if len(h.speaker.Spoken) != 1 || h.speaker.Spoken[0].Lang != types.Hindi {
		t.Errorf("reply not spoken in Hindi: %+v", h.speaker.Spoken)
	}
}

func TestChat_FollowUpOnlyKeepsLastMain(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: Paris is the capital of France.")
	h.handle(t, "what is the capital of france")
	h.speaker.Reset()

	h.llm.Respond("Follow-up: Which country do you mean?")
	h.handle(t, "and the other one")

	if last, ok := h.a.LastMain(); !ok || last != "Paris is the capital of France." {
		t.Errorf("LastMain = %q, %v; want previous main", last, ok)
	}
	history := h.a.History()
	if n := len(history); n != 3 || history[2] != (conversation.Turn{Role: types.RoleAssistant, Content: "Which country do you mean?"}) {
		t.Errorf("History = %+v", history)
	}
	assertSpoken(t, h.speaker, "Which country do you mean?")
}

func TestChat_EmptyReply(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: First.")
	h.handle(t, "say something")
	h.speaker.Reset()
	h.out.Reset()

	h.llm.Respond("   ")
	h.handle(t, "say more")

	if _, ok := h.a.LastMain(); ok {
		t.Error("LastMain should be cleared after an empty reply")
	}
	if got := h.out.String(); got != "Aura: (No response generated)\n" {
		t.Errorf("output = %q", got)
	}
	assertSpoken(t, h.speaker, msgNoResponse)
	if h.a.conv.Len() != 2 {
		t.Errorf("history should be unchanged, got %d turns", h.a.conv.Len())
	}
}

func TestChat_ModelFailureClearsLastMain(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: A joke.")
	h.handle(t, "tell me a joke")

	h.llm.CompleteErr = errors.New("rate limited")
	h.speaker.Reset()
	h.handle(t, "another one")

	if _, ok := h.a.LastMain(); ok {
		t.Fatal("LastMain should be cleared after a model failure")
	}
	assertSpoken(t, h.speaker, msgModelError)
	if !strings.Contains(h.out.String(), "rate limited") {
		t.Errorf("error detail not printed: %q", h.out.String())
	}

	h.speaker.Reset()
	h.handle(t, "save that")
	assertSpoken(t, h.speaker, msgNothingSaved)
	if len(h.llm.Calls()) != 2 {
		t.Errorf("save_previous must not call the model, got %d calls", len(h.llm.Calls()))
	}
	if len(h.exporter.texts) != 0 {
		t.Error("nothing should be exported")
	}
}

func TestChat_AndSave(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: Roses are red.\nFollow-up: Want another?")
	h.handle(t, "write a poem and save as pdf")

	assertSpoken(t, h.speaker, "Roses are red.", msgSaveWhere, msgSaved, "Want another?")
	if !slices.Equal(h.exporter.texts, []string{"Roses are red."}) {
		t.Errorf("exported %q", h.exporter.texts)
	}
	if !slices.Equal(h.exporter.paths, []string{"draft.pdf"}) {
		t.Errorf("export paths %q", h.exporter.paths)
	}
	if !slices.Equal(h.picker.Suggestions, []string{SuggestedPDFName}) {
		t.Errorf("suggestions %q", h.picker.Suggestions)
	}
}

func TestChat_AndSaveWithoutMainSkipsSave(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Follow-up: What should the poem be about?")
	h.handle(t, "write a poem and save as pdf")

	if len(h.picker.Suggestions) != 0 || len(h.exporter.texts) != 0 {
		t.Error("nothing should be saved without a main response")
	}
}

// ── Save previous ────────────────────────────────────────────────────────────

func TestSavePrevious_EndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.llm.Respond("Response: Why did the gopher cross the road?")
	h.handle(t, "tell me a joke")
	h.speaker.Reset()

	h.handle(t, "save that")

	if !slices.Equal(h.exporter.texts, []string{"Why did the gopher cross the road?"}) {
		t.Errorf("exported %q", h.exporter.texts)
	}
	assertSpoken(t, h.speaker, msgSaveWhere, msgSaved)
	if len(h.llm.Calls()) != 1 {
		t.Errorf("save_previous must not call the model")
	}
}

func TestSavePrevious_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		saveErr   error
		savePath  string
		exportErr error
		want      []string
		exports   int
	}{
		{name: "cancelled", saveErr: dialog.ErrCancelled, want: []string{msgSaveWhere, msgSaveCancelled}},
		{name: "empty path", savePath: "", want: []string{msgSaveWhere, msgSaveCancelled}},
		{name: "dialog error", saveErr: errors.New("tty gone"), want: []string{msgSaveWhere, msgSaveFailed}},
		{name: "export error", savePath: "out.pdf", exportErr: errors.New("disk full"), want: []string{msgSaveWhere, msgSaveFailed}, exports: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			h.picker.Save = tt.savePath
			h.picker.SaveErr = tt.saveErr
			h.exporter.err = tt.exportErr
			h.a.conv.SetLastMain("draft text")

			h.handle(t, "save it")

			assertSpoken(t, h.speaker, tt.want...)
			if len(h.exporter.texts) != tt.exports {
				t.Errorf("exports = %d, want %d", len(h.exporter.texts), tt.exports)
			}
			if last, ok := h.a.LastMain(); !ok || last != "draft text" {
				t.Error("a failed save must not clear the last main response")
			}
		})
	}
}

func TestSave_MissingTools(t *testing.T) {
	t.Parallel()

	speaker := &speechmock.Speaker{}
	a := New(&llmmock.Provider{}, &speechmock.Listener{}, WithSpeaker(speaker), WithOutput(&bytes.Buffer{}))
	a.conv.SetLastMain("text")
	a.HandleInput(context.Background(), "save that")
	assertSpoken(t, speaker, msgSaveMissing)
}

// ── Images ───────────────────────────────────────────────────────────────────

func TestImageGeneration_EndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.a.conv.SetLastMain("earlier")
	h.handle(t, "Create an image of a cat")

	if !slices.Equal(h.img.Prompts, []string{"Create an image of a cat"}) {
		t.Errorf("prompts = %q, want the raw input", h.img.Prompts)
	}
	if len(h.llm.Calls()) != 0 {
		t.Error("image generation must not call the model")
	}
	if h.a.conv.Len() != 0 {
		t.Error("image generation must not touch the history")
	}
	if last, _ := h.a.LastMain(); last != "earlier" {
		t.Errorf("LastMain = %q, want unchanged", last)
	}
	out := h.out.String()
	if !strings.Contains(out, "Aura: Generating image, please wait...") ||
		!strings.Contains(out, "Here is the URL:\nhttps://img.example/cat.png") {
		t.Errorf("unexpected output %q", out)
	}
	assertSpoken(t, h.speaker, msgGenerateSuccess)
}

func TestImageGeneration_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		err  error
		want string
	}{
		{name: "no image", err: image.ErrNoImage, want: msgGenerateEmpty},
		{name: "empty url", url: "", want: msgGenerateEmpty},
		{name: "api error", err: errors.New("402 payment required"), want: msgGenerateError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			h.img.URL = tt.url
			h.img.GenerateErr = tt.err

			if got := h.handle(t, "draw an image of a dragon"); got != Continue {
				t.Fatalf("HandleInput = %v", got)
			}
			assertSpoken(t, h.speaker, tt.want)
			if !strings.Contains(h.out.String(), "Aura: Failed to generate the image.") {
				t.Errorf("failure not printed: %q", h.out.String())
			}
		})
	}
}

func TestDescribeImage(t *testing.T) {
	t.Parallel()

	t.Run("with uploader", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.img.UploadURL = "https://i.ibb.co/cat.png"
		h.a.uploader = h.img

		h.handle(t, "please describe image")

		if !slices.Equal(h.img.Uploads, []string{"/tmp/cat.png"}) {
			t.Errorf("uploads = %q", h.img.Uploads)
		}
		if !slices.Equal(h.img.Sources, []string{"https://i.ibb.co/cat.png"}) {
			t.Errorf("caption sources = %q", h.img.Sources)
		}
		assertSpoken(t, h.speaker, "A cat on a sofa.")
		out := h.out.String()
		for _, want := range []string{"Image selected: /tmp/cat.png", "Uploading image to get public URL...", "Image uploaded successfully: https://i.ibb.co/cat.png", "Image Description: A cat on a sofa."} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q: %q", want, out)
			}
		}
		if len(h.llm.Calls()) != 0 {
			t.Error("description must bypass the model")
		}
	})

	t.Run("local", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.handle(t, "Analyze image please")
		if !slices.Equal(h.img.Sources, []string{"/tmp/cat.png"}) {
			t.Errorf("caption sources = %q", h.img.Sources)
		}
		assertSpoken(t, h.speaker, msgUploadMissing, "A cat on a sofa.")
	})

	t.Run("upload failure", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.img.UploadErr = errors.New("imgbb down")
		h.a.uploader = h.img
		h.handle(t, "image description")
		assertSpoken(t, h.speaker, msgUploadFailed)
		if len(h.img.Sources) != 0 {
			t.Error("captioner must not run after a failed upload")
		}
	})

	t.Run("nothing selected", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.picker.ImageErr = dialog.ErrCancelled
		h.handle(t, "describe image")
		assertSpoken(t, h.speaker, msgNoImage)
	})

	t.Run("caption failure", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.img.DescribeErr = errors.New("model overloaded")
		h.handle(t, "describe image")
		assertSpoken(t, h.speaker, msgUploadMissing, msgAnalyzeFailed)
	})

	t.Run("takes precedence over generation", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.handle(t, "create an image description")
		if len(h.img.Prompts) != 0 || len(h.img.Sources) != 1 {
			t.Errorf("expected the description flow, prompts=%q sources=%q", h.img.Prompts, h.img.Sources)
		}
	})
}

// ── Speech disabled ──────────────────────────────────────────────────────────

func TestMuted_RepliesArePrintedOnce(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	model := &llmmock.Provider{}
	model.Respond("Response: Hi!")
	a := New(model, &speechmock.Listener{}, WithOutput(&out), WithPicker(&dialogmock.Picker{SaveErr: dialog.ErrCancelled}), WithExporter(&fakeExporter{}))

	a.HandleInput(context.Background(), "hello")
	if got := out.String(); got != "Aura: Hi!\n" {
		t.Errorf("output = %q", got)
	}

	out.Reset()
	a.HandleInput(context.Background(), "save that")
	want := "(Aura speaking disabled): " + msgSaveWhere + "\n(Aura speaking disabled): " + msgSaveCancelled + "\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSystemPrompt(t *testing.T) {
	t.Parallel()

	p := SystemPrompt("Aura", types.Hindi)
	for _, want := range []string{"You are Aura,", "Respond clearly and naturally in Hindi.", "Response: <", "Follow-up: <"} {
		if !strings.Contains(p, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	for s, want := range map[State]string{Idle: "idle", AwaitingInput: "awaiting_input", Dispatching: "dispatching", Exited: "exited"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestWithClassifier(t *testing.T) {
	t.Parallel()

	h := newHarness(t, WithClassifier(intent.New(intent.WithMaxSavePreviousTokens(6))))
	h.a.conv.SetLastMain("keep me")
	h.handle(t, "could you please save it")
	if len(h.exporter.texts) != 1 {
		t.Errorf("expected a save with the raised token limit, got %d exports", len(h.exporter.texts))
	}
}
