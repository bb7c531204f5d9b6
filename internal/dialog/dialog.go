// Package dialog asks the user to pick files: where to save a PDF and which
// image to analyse.
//
// [Terminal] is the only implementation. It prompts on the console with
// github.com/tcnksm/go-input, so it works the same in text and voice mode.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	input "github.com/tcnksm/go-input"
)

// ErrCancelled is returned when the user dismisses a prompt without choosing
// a file.
var ErrCancelled = errors.New("dialog: cancelled")

// ImageExtensions lists the file extensions OpenImage accepts.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Picker selects files on behalf of the user.
type Picker interface {
	// SavePath asks where to save a PDF. suggested is offered as the
	// default file name. The returned path always ends in ".pdf".
	SavePath(ctx context.Context, suggested string) (string, error)

	// OpenImage asks for an existing image file.
	OpenImage(ctx context.Context) (string, error)
}

// Terminal is a Picker that prompts on the console.
type Terminal struct {
	ui *input.UI
}

var _ Picker = (*Terminal)(nil)

// NewTerminal returns a Terminal reading answers from r and writing prompts
// to w. In text mode r must be the reader the text listener uses.
func NewTerminal(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{ui: &input.UI{Reader: r, Writer: w}}
}

// SavePath implements Picker. An empty answer cancels.
func (t *Terminal) SavePath(ctx context.Context, suggested string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	query := "Save PDF as (leave empty to cancel)"
	if suggested != "" {
		query = fmt.Sprintf("Save PDF as, e.g. %s (leave empty to cancel)", suggested)
	}
	answer, err := t.ui.Ask(query, &input.Options{
		Required:  false,
		HideOrder: true,
	})
	if err != nil {
		return "", translate(err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrCancelled
	}
	return EnsurePDF(answer), nil
}

// OpenImage implements Picker. The answer must name an existing file with
// one of the ImageExtensions; anything else is asked again. An empty answer
// cancels.
func (t *Terminal) OpenImage(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := t.ui.Ask("Path of the image to analyse (leave empty to cancel)", &input.Options{
		Required:     false,
		Loop:         true,
		HideOrder:    true,
		ValidateFunc: validateImage,
	})
	if err != nil {
		return "", translate(err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrCancelled
	}
	return answer, nil
}

// EnsurePDF appends ".pdf" to path unless it already has that extension.
func EnsurePDF(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return path
	}
	return path + ".pdf"
}

// IsImage reports whether path has one of the ImageExtensions.
func IsImage(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

func validateImage(answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}
	if !IsImage(answer) {
		return fmt.Errorf("unsupported image type %q; use one of %s", filepath.Ext(answer), strings.Join(ImageExtensions, ", "))
	}
	info, err := os.Stat(answer)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", answer, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", answer)
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, input.ErrInterrupted) || errors.Is(err, io.EOF) {
		return ErrCancelled
	}
	return fmt.Errorf("dialog: %w", err)
}
