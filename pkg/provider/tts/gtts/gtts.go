// Package gtts provides a TTS provider backed by the unofficial Google
// Translate text-to-speech endpoint. It needs no API key and speaks both
// English and Hindi, which makes it the default voice for Aura.
//
// The endpoint rejects long inputs, so text is split into chunks of at most
// [maxChunkLen] characters on word boundaries; the MP3 responses are
// concatenated frame-wise into one clip.
package gtts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/aura/pkg/provider/tts"
	"github.com/MrWong99/aura/pkg/types"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	defaultTimeout  = 15 * time.Second

	// maxChunkLen is the longest text (in runes) sent in a single request.
	maxChunkLen = 100
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithEndpoint overrides the synthesis endpoint. Used by tests.
func WithEndpoint(u string) Option {
	return func(p *Provider) {
		p.endpoint = u
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithTLD selects the Google domain (e.g. "co.in" for an Indian accent).
func WithTLD(tld string) Option {
	return func(p *Provider) {
		p.endpoint = "https://translate.google." + tld + "/translate_tts"
	}
}

// Provider implements tts.Provider against Google Translate TTS.
type Provider struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new Provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Synthesize implements tts.Provider. The returned clip is always MP3.
func (p *Provider) Synthesize(ctx context.Context, text string, lang types.Language) (*tts.Audio, error) {
	chunks := splitText(text, maxChunkLen)
	if len(chunks) == 0 {
		return nil, errors.New("gtts: text must not be empty")
	}

	var clip bytes.Buffer
	for i, chunk := range chunks {
		data, err := p.fetch(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return nil, err
		}
		clip.Write(data)
	}
	if clip.Len() == 0 {
		return nil, errors.New("gtts: empty audio response")
	}
	return &tts.Audio{Data: clip.Bytes(), Format: tts.FormatMP3}, nil
}

func (p *Provider) fetch(ctx context.Context, chunk string, lang types.Language, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang.String())
	q.Set("q", chunk)
	q.Set("textlen", fmt.Sprint(utf8.RuneCountInString(chunk)))
	q.Set("idx", fmt.Sprint(idx))
	q.Set("total", fmt.Sprint(total))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gtts: create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "http://translate.google.com/")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtts: GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtts: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gtts: read response: %w", err)
	}
	return data, nil
}

// splitText breaks text into chunks of at most limit runes, preferring
// sentence punctuation and then whitespace as cut points. Words longer than
// limit are hard-cut.
func splitText(text string, limit int) []string {
	text = strings.Join(strings.Fields(text), " ")
	var out []string
	for text != "" {
		runes := []rune(text)
		if len(runes) <= limit {
			out = append(out, text)
			break
		}
		cut := -1
		for i := limit - 1; i > 0; i-- {
			if strings.ContainsRune(".!?,;:।", runes[i]) {
				cut = i + 1
				break
			}
		}
		if cut < 0 {
			for i := limit; i > 0; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i
					break
				}
			}
		}
		if cut < 0 {
			cut = limit
		}
		if chunk := strings.TrimSpace(string(runes[:cut])); chunk != "" {
			out = append(out, chunk)
		}
		text = strings.TrimSpace(string(runes[cut:]))
	}
	return out
}

var _ tts.Provider = (*Provider)(nil)
