// Package mock provides a test double for dialog.Picker.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/aura/internal/dialog"
)

// Picker returns canned answers and counts calls.
type Picker struct {
	mu sync.Mutex

	// Save is returned by SavePath.
	Save string
	// SaveErr, if non-nil, is returned as the error from SavePath.
	SaveErr error

	// Image is returned by OpenImage.
	Image string
	// ImageErr, if non-nil, is returned as the error from OpenImage.
	ImageErr error

	// Suggestions records the suggested name of every SavePath call.
	Suggestions []string
	// OpenCalls counts OpenImage calls.
	OpenCalls int
}

var _ dialog.Picker = (*Picker)(nil)

// SavePath implements dialog.Picker.
func (p *Picker) SavePath(_ context.Context, suggested string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Suggestions = append(p.Suggestions, suggested)
	if p.SaveErr != nil {
		return "", p.SaveErr
	}
	return p.Save, nil
}

// OpenImage implements dialog.Picker.
func (p *Picker) OpenImage(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OpenCalls++
	if p.ImageErr != nil {
		return "", p.ImageErr
	}
	return p.Image, nil
}
