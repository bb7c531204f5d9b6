package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MrWong99/aura/internal/conversation"
	"github.com/MrWong99/aura/internal/dialog"
	"github.com/MrWong99/aura/internal/intent"
	"github.com/MrWong99/aura/internal/observe"
	"github.com/MrWong99/aura/internal/reply"
	"github.com/MrWong99/aura/pkg/provider/image"
	"github.com/MrWong99/aura/pkg/provider/llm"
	"github.com/MrWong99/aura/pkg/types"
)

// describeIntent labels the image description flow in metrics and spans.
const describeIntent = "image_description"

// HandleInput processes one user utterance to completion. It returns Exit
// when the utterance contains an exit phrase and Continue otherwise. Blank
// input is ignored.
func (a *Assistant) HandleInput(ctx context.Context, text string) Outcome {
	if a.State() == Exited {
		return Exit
	}
	if strings.TrimSpace(text) == "" {
		return Continue
	}

	if a.exit.matches(text) {
		a.reply(ctx, msgFarewell, types.English)
		a.setState(Exited)
		return Exit
	}

	a.setState(Dispatching)
	defer func() { a.setState(Idle) }()

	ctx, span := observe.StartTurn(ctx)
	defer span.End()

	lang := a.detector.Detect(text)
	span.SetAttributes(attribute.String("language", lang.String()))

	if containsAny(strings.ToLower(text), DescribePhrases) {
		a.recordTurn(ctx, describeIntent, lang)
		span.SetAttributes(attribute.String("intent", describeIntent))
		a.describeImage(ctx)
		return Continue
	}

	res := a.classifier.Classify(text)
	a.recordTurn(ctx, res.Kind.String(), lang)
	span.SetAttributes(attribute.String("intent", res.Kind.String()))
	observe.Logger(ctx).Debug("assistant: dispatching turn", "intent", res.Kind, "language", lang)

	switch res.Kind {
	case intent.ImageGeneration:
		// The generator gets the utterance as typed, not the lower-cased query.
		a.generateImage(ctx, text)
	case intent.SavePrevious:
		if last, ok := a.conv.LastMain(); ok && last != "" {
			a.savePDF(ctx, last, lang)
		} else {
			a.reply(ctx, msgNothingSaved, lang)
		}
	case intent.Chat, intent.ChatAndSave:
		if err := a.chat(ctx, res, lang); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "completion failed")
		}
	default:
		a.reply(ctx, msgUnknownTask, types.English)
	}
	return Continue
}

// chat runs a completion turn. The returned error is only for tracing; the
// user has already been told about it.
func (a *Assistant) chat(ctx context.Context, res intent.Result, lang types.Language) error {
	req := llm.CompletionRequest{
		SystemPrompt: SystemPrompt(a.name, lang),
		Messages:     append(a.conv.History(), conversation.Turn{Role: types.RoleUser, Content: res.Query}),
		Temperature:  a.temperature,
		MaxTokens:    a.maxTokens,
	}
	if limit := a.llm.Capabilities().MaxOutputTokens; limit > 0 && req.MaxTokens > limit {
		req.MaxTokens = limit
	}

	start := time.Now()
	callCtx, call := observe.StartProviderCall(ctx, observe.KindLLM, a.names.LLM)
	resp, err := a.llm.Complete(callCtx, req)
	observe.EndSpan(call, err)
	if a.metrics != nil {
		a.metrics.RecordCall(ctx, a.metrics.LLMDuration, a.names.LLM, observe.KindLLM, start, err)
	}
	if err != nil {
		observe.Logger(ctx).Error("assistant: completion failed", "err", err)
		a.print(fmt.Sprintf("%s (%v)", msgModelError, err))
		a.say(ctx, msgModelError, types.English)
		a.conv.ClearLastMain()
		return err
	}

	var content string
	if resp != nil {
		content = strings.TrimSpace(resp.Content)
	}
	split := reply.Parse(content)

	switch {
	case split.Main != "":
		a.conv.SetLastMain(split.Main)
		a.conv.Append(
			conversation.Turn{Role: types.RoleUser, Content: res.Query},
			conversation.Turn{Role: types.RoleAssistant, Content: split.Main},
		)
		if split.HasFollowUp {
			a.conv.Append(conversation.Turn{Role: types.RoleAssistant, Content: split.FollowUp})
		}
		a.reply(ctx, split.Main, lang)
	case split.HasFollowUp:
		a.conv.Append(conversation.Turn{Role: types.RoleAssistant, Content: split.FollowUp})
		a.reply(ctx, split.FollowUp, lang)
		return nil
	default:
		a.print("(No response generated)")
		if !a.muted {
			a.say(ctx, msgNoResponse, types.English)
		}
		a.conv.ClearLastMain()
		return nil
	}

	if res.Kind == intent.ChatAndSave {
		a.savePDF(ctx, split.Main, lang)
	}
	if split.HasFollowUp {
		a.reply(ctx, split.FollowUp, lang)
	}
	return nil
}

// savePDF asks for a destination and exports text there.
func (a *Assistant) savePDF(ctx context.Context, text string, lang types.Language) {
	if strings.TrimSpace(text) == "" {
		a.say(ctx, msgSaveEmpty, lang)
		return
	}
	if a.picker == nil || a.exporter == nil {
		a.say(ctx, msgSaveMissing, types.English)
		return
	}

	a.say(ctx, msgSaveWhere, types.English)
	path, err := a.picker.SavePath(ctx, SuggestedPDFName)
	if errors.Is(err, dialog.ErrCancelled) || (err == nil && path == "") {
		a.say(ctx, msgSaveCancelled, lang)
		return
	}
	if err != nil {
		observe.Logger(ctx).Error("assistant: save dialog failed", "err", err)
		a.say(ctx, msgSaveFailed, types.English)
		return
	}

	path = dialog.EnsurePDF(path)
	observe.Logger(ctx).Debug("assistant: saving pdf", "path", path)
	if err := a.exporter.Save(text, path); err != nil {
		observe.Logger(ctx).Error("assistant: could not save pdf", "path", path, "err", err)
		a.say(ctx, msgSaveFailed, types.English)
		return
	}
	a.say(ctx, msgSaved, lang)
}

// generateImage creates an image for prompt and prints its URL.
func (a *Assistant) generateImage(ctx context.Context, prompt string) {
	a.print(msgGenerating)
	if a.generator == nil {
		observe.Logger(ctx).Warn("assistant: image generation requested but no generator is configured")
		a.print(msgGenerateFailed)
		a.say(ctx, msgGenerateError, types.English)
		return
	}

	start := time.Now()
	callCtx, call := observe.StartProviderCall(ctx, observe.KindImage, a.names.Image)
	url, err := a.generator.Generate(callCtx, prompt)
	if err == nil && url == "" {
		err = image.ErrNoImage
	}
	observe.EndSpan(call, err)
	if a.metrics != nil {
		a.metrics.RecordCall(ctx, a.metrics.ImageDuration, a.names.Image, observe.KindImage, start, err)
	}
	switch {
	case errors.Is(err, image.ErrNoImage):
		a.print(msgGenerateFailed)
		a.say(ctx, msgGenerateEmpty, types.English)
	case err != nil:
		observe.Logger(ctx).Error("assistant: image generation failed", "err", err)
		a.print(msgGenerateFailed)
		a.say(ctx, msgGenerateError, types.English)
	default:
		a.print("Image generated successfully! Here is the URL:\n" + url)
		a.say(ctx, msgGenerateSuccess, types.English)
	}
}

// describeImage lets the user pick an image and speaks its caption.
func (a *Assistant) describeImage(ctx context.Context) {
	if a.captioner == nil || a.picker == nil {
		observe.Logger(ctx).Warn("assistant: image description requested but no captioner or picker is configured")
		a.say(ctx, msgAnalyzeMissing, types.English)
		return
	}

	path, err := a.picker.OpenImage(ctx)
	if err != nil && !errors.Is(err, dialog.ErrCancelled) {
		observe.Logger(ctx).Error("assistant: image dialog failed", "err", err)
	}
	if err != nil || path == "" {
		a.say(ctx, msgNoImage, types.English)
		return
	}
	fmt.Fprintf(a.out, "Image selected: %s\n", path)

	source := path
	if a.uploader != nil {
		fmt.Fprintln(a.out, "Uploading image to get public URL...")
		start := time.Now()
		callCtx, call := observe.StartProviderCall(ctx, observe.KindUploader, a.names.Uploader)
		url, err := a.uploader.Upload(callCtx, path)
		observe.EndSpan(call, err)
		if a.metrics != nil {
			a.metrics.RecordCall(ctx, a.metrics.ImageDuration, a.names.Uploader, observe.KindUploader, start, err)
		}
		if err != nil || url == "" {
			observe.Logger(ctx).Error("assistant: image upload failed", "path", path, "err", err)
			a.say(ctx, msgUploadFailed, types.English)
			return
		}
		fmt.Fprintf(a.out, "Image uploaded successfully: %s\n", url)
		source = url
	} else {
		a.say(ctx, msgUploadMissing, types.English)
	}

	start := time.Now()
	callCtx, call := observe.StartProviderCall(ctx, observe.KindCaptioner, a.names.Captioner)
	description, err := a.captioner.Describe(callCtx, source)
	observe.EndSpan(call, err)
	if a.metrics != nil {
		a.metrics.RecordCall(ctx, a.metrics.ImageDuration, a.names.Captioner, observe.KindCaptioner, start, err)
	}
	if err != nil || strings.TrimSpace(description) == "" {
		observe.Logger(ctx).Error("assistant: image description failed", "source", source, "err", err)
		description = msgAnalyzeFailed
	}
	fmt.Fprintf(a.out, "Image Description: %s\n", description)
	a.say(ctx, description, types.English)
}

// ── Output ───────────────────────────────────────────────────────────────────

// print writes an assistant line to the console.
func (a *Assistant) print(text string) {
	fmt.Fprintf(a.out, "%s: %s\n", a.name, text)
}

// reply prints text as an assistant line and speaks it when speech is on.
func (a *Assistant) reply(ctx context.Context, text string, lang types.Language) {
	a.print(text)
	if !a.muted {
		a.say(ctx, text, lang)
	}
}

// say hands text to the speaker. With speech disabled the speaker prints it.
// Playback failures are logged and otherwise ignored.
func (a *Assistant) say(ctx context.Context, text string, lang types.Language) {
	if err := a.speaker.Speak(ctx, text, lang); err != nil {
		observe.Logger(ctx).Warn("assistant: error speaking text", "err", err)
	}
}

func (a *Assistant) recordTurn(ctx context.Context, kind string, lang types.Language) {
	if a.metrics != nil {
		a.metrics.RecordTurn(ctx, kind, lang.String())
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
