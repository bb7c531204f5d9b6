package dialog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsurePDF(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"draft":          "draft.pdf",
		"draft.pdf":      "draft.pdf",
		"Draft.PDF":      "Draft.PDF",
		"notes.txt":      "notes.txt.pdf",
		"dir/sub/report": "dir/sub/report.pdf",
	}
	for in, want := range tests {
		if got := EnsurePDF(in); got != want {
			t.Errorf("EnsurePDF(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsImage(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.bmp", "f.webp"} {
		if !IsImage(p) {
			t.Errorf("IsImage(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"a.pdf", "b", "c.tiff", "png"} {
		if IsImage(p) {
			t.Errorf("IsImage(%q) = true, want false", p)
		}
	}
}

func TestTerminal_SavePath(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("my notes\n"), &out)
	got, err := term.SavePath(context.Background(), "aura_response.pdf")
	if err != nil {
		t.Fatalf("SavePath: %v", err)
	}
	if got != "my notes.pdf" {
		t.Errorf("SavePath = %q, want %q", got, "my notes.pdf")
	}
	if !strings.Contains(out.String(), "aura_response.pdf") {
		t.Errorf("suggestion not shown in prompt %q", out.String())
	}
}

func TestTerminal_SavePathCancelled(t *testing.T) {
	t.Parallel()

	term := NewTerminal(strings.NewReader("\n"), &bytes.Buffer{})
	if _, err := term.SavePath(context.Background(), ""); !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestTerminal_OpenImage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cat.png")
	if err := os.WriteFile(path, []byte("\x89PNG"), 0o644); err != nil {
		t.Fatal(err)
	}
	term := NewTerminal(strings.NewReader(path+"\n"), &bytes.Buffer{})
	got, err := term.OpenImage(context.Background())
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	if got != path {
		t.Errorf("OpenImage = %q, want %q", got, path)
	}
}

func TestTerminal_OpenImageCancelled(t *testing.T) {
	t.Parallel()

	term := NewTerminal(strings.NewReader("\n"), &bytes.Buffer{})
	if _, err := term.OpenImage(context.Background()); !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestValidateImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(good, []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateImage(good); err != nil {
		t.Errorf("validateImage(existing jpg) = %v", err)
	}
	if err := validateImage(""); err != nil {
		t.Errorf("validateImage(empty) = %v, want nil", err)
	}
	if err := validateImage(filepath.Join(dir, "notes.txt")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if err := validateImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
