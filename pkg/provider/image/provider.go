// Package image defines the provider interfaces for image generation, image
// captioning, and image hosting.
//
// The three concerns are separate interfaces because deployments mix
// backends: Aura typically generates with Replicate SDXL, hosts local files on
// imgbb, and captions with a vision-capable chat model.
//
// Implementations must be safe for concurrent use.
package image

import (
	"context"
	"errors"
)

// ErrNoImage is returned by a Generator when the backend finished without
// producing any output.
var ErrNoImage = errors.New("image: no image generated")

// Generator turns a text prompt into a hosted image.
type Generator interface {
	// Generate produces one image for prompt and returns its public URL.
	// Returns an error wrapping [ErrNoImage] when the backend yields nothing.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Captioner describes the content of an image.
type Captioner interface {
	// Describe returns a natural-language description of the image at source,
	// which is either an http(s) URL or a local file path.
	Describe(ctx context.Context, source string) (string, error)
}

// Uploader publishes a local image file and returns a public URL for it.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}
