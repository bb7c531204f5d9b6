// Package mock provides test doubles for the image provider interfaces.
//
// One [Provider] value implements all three interfaces so a test can wire the
// same instance as generator, captioner, and uploader and inspect the calls.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/aura/pkg/provider/image"
)

// Provider is a mock implementation of image.Generator, image.Captioner, and
// image.Uploader.
type Provider struct {
	mu sync.Mutex

	// URL is returned by Generate.
	URL string
	// GenerateErr, if non-nil, is returned by Generate.
	GenerateErr error

	// Description is returned by Describe.
	Description string
	// DescribeErr, if non-nil, is returned by Describe.
	DescribeErr error

	// UploadURL is returned by Upload.
	UploadURL string
	// UploadErr, if non-nil, is returned by Upload.
	UploadErr error

	// Prompts records every prompt passed to Generate.
	Prompts []string
	// Sources records every source passed to Describe.
	Sources []string
	// Uploads records every path passed to Upload.
	Uploads []string
}

// Generate records prompt and returns URL, GenerateErr.
func (p *Provider) Generate(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Prompts = append(p.Prompts, prompt)
	if p.GenerateErr != nil {
		return "", p.GenerateErr
	}
	return p.URL, nil
}

// Describe records source and returns Description, DescribeErr.
func (p *Provider) Describe(_ context.Context, source string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sources = append(p.Sources, source)
	if p.DescribeErr != nil {
		return "", p.DescribeErr
	}
	return p.Description, nil
}

// Upload records path and returns UploadURL, UploadErr.
func (p *Provider) Upload(_ context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Uploads = append(p.Uploads, path)
	if p.UploadErr != nil {
		return "", p.UploadErr
	}
	return p.UploadURL, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Prompts = nil
	p.Sources = nil
	p.Uploads = nil
}

var (
	_ image.Generator = (*Provider)(nil)
	_ image.Captioner = (*Provider)(nil)
	_ image.Uploader  = (*Provider)(nil)
)
