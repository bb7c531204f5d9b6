package gtts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/MrWong99/aura/pkg/provider/tts"
	"github.com/MrWong99/aura/pkg/types"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  int
	}{
		{name: "empty", text: "   ", limit: 100, want: 0},
		{name: "short", text: "Hello there.", limit: 100, want: 1},
		{name: "sentence cut", text: "One two three. Four five six.", limit: 16, want: 2},
		{name: "word cut", text: "alpha beta gamma delta", limit: 11, want: 2},
		{name: "hard cut", text: strings.Repeat("x", 25), limit: 10, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := splitText(tt.text, tt.limit)
			if len(got) != tt.want {
				t.Fatalf("splitText(%q) = %q, want %d chunks", tt.text, got, tt.want)
			}
			for _, c := range got {
				if utf8.RuneCountInString(c) > tt.limit {
					t.Errorf("chunk %q exceeds limit %d", c, tt.limit)
				}
			}
		})
	}
}

func TestSynthesize_ConcatenatesChunks(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		langs []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		langs = append(langs, r.URL.Query().Get("tl"))
		mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-" + r.URL.Query().Get("idx") + ";"))
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL))
	text := strings.Repeat("namaste duniya ", 10) // 150 runes, two chunks
	clip, err := p.Synthesize(context.Background(), text, types.Hindi)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if clip.Format != tts.FormatMP3 {
		t.Errorf("Format = %q, want mp3", clip.Format)
	}
	if string(clip.Data) != "mp3-0;mp3-1;" {
		t.Errorf("Data = %q", clip.Data)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, l := range langs {
		if l != "hi" {
			t.Errorf("tl = %q, want hi", l)
		}
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := New(WithEndpoint(srv.URL)).Synthesize(context.Background(), "hello", types.English); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()
	if _, err := New().Synthesize(context.Background(), " \n ", types.English); err == nil {
		t.Fatal("expected error for empty text")
	}
}
