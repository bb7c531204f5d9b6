// Package pdfexport writes assistant replies to single-column PDF documents.
package pdfexport

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const (
	defaultFont       = "Arial"
	defaultFontSize   = 12
	defaultMargin     = 15
	defaultLineHeight = 10
)

// Exporter renders plain text into an A4 PDF.
//
// The built-in PDF fonts only cover Latin-1, so every rune outside that range
// (Devanagari included) is written as '?'.
type Exporter struct {
	font       string
	fontSize   float64
	margin     float64
	lineHeight float64
	author     string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFont sets the core font family and size. Defaults to Arial 12.
func WithFont(family string, size float64) Option {
	return func(e *Exporter) {
		e.font = family
		e.fontSize = size
	}
}

// WithAuthor sets the document author metadata.
func WithAuthor(name string) Option {
	return func(e *Exporter) { e.author = name }
}

// New returns an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		font:       defaultFont,
		fontSize:   defaultFontSize,
		margin:     defaultMargin,
		lineHeight: defaultLineHeight,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Save writes text to a new PDF at path, replacing any existing file.
func (e *Exporter) Save(text, path string) error {
	if path == "" {
		return errors.New("pdfexport: path must not be empty")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, e.margin)
	if e.author != "" {
		pdf.SetAuthor(e.author, true)
		pdf.SetCreator(e.author, true)
	}
	pdf.AddPage()
	pdf.SetFont(e.font, "", e.fontSize)
	pdf.MultiCell(0, e.lineHeight, Latin1(text), "", "L", false)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("pdfexport: write %s: %w", path, err)
	}
	return nil
}

// Latin1 transcodes s from UTF-8 to ISO-8859-1, replacing runes that have no
// Latin-1 encoding with '?'.
func Latin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			b.WriteByte('?')
			continue
		}
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b.WriteByte(c)
	}
	return b.String()
}
