// Package replicate provides an image.Generator backed by Replicate through
// github.com/replicate/replicate-go. The default model is Stability AI's SDXL.
//
// A prediction is created and then polled until it reaches a terminal state.
//
//	g, err := replicate.New(os.Getenv("REPLICATE_API_TOKEN"))
//	url, err := g.Generate(ctx, "a lighthouse at dusk")
package replicate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	replicatelib "github.com/replicate/replicate-go"

	"github.com/MrWong99/aura/pkg/provider/image"
)

const (
	// SDXLVersion is the stability-ai/sdxl model version Aura generates with.
	SDXLVersion = "db21e45a3d465e36eaa1a02a7585e8b5c4e1eeb26e245cd72c3b70d3b9b5b9d4"

	defaultPollInterval = time.Second
	defaultTimeout      = 2 * time.Minute
)

// Generation parameters sent with every prediction.
const (
	numOutputs        = 1
	imageSize         = 1024
	guidanceScale     = 7.5
	numInferenceSteps = 30
)

var _ image.Generator = (*Generator)(nil)

// Option is a functional option for Generator.
type Option func(*Generator)

// WithEndpoint overrides the API base URL (default https://api.replicate.com/v1).
func WithEndpoint(u string) Option {
	return func(g *Generator) { g.endpoint = strings.TrimRight(u, "/") }
}

// WithVersion selects a different model version hash.
func WithVersion(v string) Option {
	return func(g *Generator) { g.version = v }
}

// WithPollInterval sets the delay between status polls. Defaults to 1 s.
func WithPollInterval(d time.Duration) Option {
	return func(g *Generator) { g.pollInterval = d }
}

// WithTimeout bounds the whole generation, polling included. Defaults to 2 min.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// Generator implements image.Generator using Replicate.
type Generator struct {
	client       *replicatelib.Client
	endpoint     string
	version      string
	pollInterval time.Duration
	timeout      time.Duration
}

// New creates a Generator authenticated with the given API token.
func New(token string, opts ...Option) (*Generator, error) {
	if token == "" {
		return nil, errors.New("replicate: token must not be empty")
	}
	g := &Generator{
		version:      SDXLVersion,
		pollInterval: defaultPollInterval,
		timeout:      defaultTimeout,
	}
	for _, o := range opts {
		o(g)
	}

	clientOpts := []replicatelib.ClientOption{replicatelib.WithToken(token)}
	if g.endpoint != "" {
		clientOpts = append(clientOpts, replicatelib.WithBaseURL(g.endpoint))
	}
	client, err := replicatelib.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("replicate: create client: %w", err)
	}
	g.client = client
	return g, nil
}

// Generate implements image.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("replicate: prompt must not be empty")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	input := replicatelib.PredictionInput{
		"prompt":              prompt,
		"num_outputs":         numOutputs,
		"width":               imageSize,
		"height":              imageSize,
		"guidance_scale":      guidanceScale,
		"num_inference_steps": numInferenceSteps,
	}
	pred, err := g.client.CreatePrediction(ctx, g.version, input, nil, false)
	if err != nil {
		return "", fmt.Errorf("replicate: create prediction: %w", err)
	}

	if !pred.Status.Terminated() {
		if err := g.client.Wait(ctx, pred, replicatelib.WithPollingInterval(g.pollInterval)); err != nil {
			return "", fmt.Errorf("replicate: wait for prediction %s: %w", pred.ID, err)
		}
	}

	if pred.Status != replicatelib.Succeeded {
		return "", fmt.Errorf("replicate: prediction %s %s: %v", pred.ID, pred.Status, pred.Error)
	}
	u := firstURL(pred.Output)
	if u == "" {
		return "", fmt.Errorf("replicate: prediction %s: %w", pred.ID, image.ErrNoImage)
	}
	return u, nil
}

// firstURL extracts the first image URL from a prediction output, which SDXL
// returns as a list of strings and some models as a single string.
func firstURL(out replicatelib.PredictionOutput) string {
	switch v := out.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
