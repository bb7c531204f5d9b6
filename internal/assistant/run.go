package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/MrWong99/aura/internal/speech"
	"github.com/MrWong99/aura/pkg/types"
)

// Run loads the saved history, greets the user and handles utterances until
// an exit phrase, the end of input or cancellation of ctx. The history is
// saved on every way out. Run returns ctx.Err() after cancellation and nil
// otherwise.
func (a *Assistant) Run(ctx context.Context) error {
	a.LoadHistory(ctx)
	a.Greet()
	defer a.SaveHistory(context.WithoutCancel(ctx))

	for a.State() != Exited {
		a.setState(AwaitingInput)
		text, err := a.listener.Listen(ctx, "")
		if err != nil {
			if ctx.Err() != nil {
				a.setState(Exited)
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				slog.Info("assistant: input closed, ending session")
				a.setState(Exited)
				return nil
			}
			a.setState(Idle)
			a.apologiseForListen(ctx, err)
			continue
		}
		a.setState(Idle)
		if a.HandleInput(ctx, text) == Exit {
			return nil
		}
	}
	return nil
}

// Greet prints a random greeting.
func (a *Assistant) Greet() {
	a.print(Greetings[rand.IntN(len(Greetings))])
}

func (a *Assistant) apologiseForListen(ctx context.Context, err error) {
	var msg string
	switch {
	case errors.Is(err, speech.ErrTimeout):
		msg = msgNoSpeech
	case errors.Is(err, speech.ErrUnrecognized):
		msg = msgUnrecognized
	case errors.Is(err, speech.ErrServiceUnavailable):
		slog.Warn("assistant: speech recognition unavailable", "err", err)
		msg = msgSTTUnavailable
	default:
		slog.Error("assistant: an error occurred during recording", "err", err)
		msg = msgListenFailed
	}
	a.say(ctx, msg, types.English)
}

// LoadHistory replaces the conversation history with the saved one. Without
// a history store it does nothing. A failed load leaves the history empty.
func (a *Assistant) LoadHistory(ctx context.Context) {
	if a.store == nil {
		return
	}
	turns, err := a.store.Load(ctx)
	if err != nil {
		slog.Error("assistant: error loading chat history", "err", err)
		a.say(ctx, msgHistoryLoadFailed, types.English)
		return
	}
	if len(turns) == 0 {
		slog.Info("assistant: no previous chat history found")
		return
	}
	a.conv.Replace(turns)
	slog.Info("assistant: chat history loaded", "turns", len(turns))
	a.say(ctx, msgHistoryLoaded, types.English)
}

// SaveHistory writes the conversation history to the history store, if any.
func (a *Assistant) SaveHistory(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.Save(ctx, a.conv.History()); err != nil {
		slog.Error("assistant: error saving chat history", "err", err)
		a.say(ctx, msgHistorySaveFailed, types.English)
		return
	}
	slog.Info("assistant: chat history saved", "turns", a.conv.Len())
	a.say(ctx, msgHistorySaved, types.English)
}
