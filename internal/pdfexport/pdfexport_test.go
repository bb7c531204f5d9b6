package pdfexport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLatin1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "plain ascii", want: "plain ascii"},
		{in: "café", want: "caf\xe9"},
		{in: "नमस्ते", want: "??????"},
		{in: "price: 5€", want: "price: 5?"},
		{in: "line1\nline2", want: "line1\nline2"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := Latin1(tt.in); got != tt.want {
			t.Errorf("Latin1(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSave_WritesPDF(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "draft.pdf")
	text := strings.Repeat("Aura wrote this paragraph. ", 200) + "\nनमस्ते"
	if err := New(WithAuthor("Aura")).Save(text, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:min(len(data), 8)])
	}
	if !bytes.Contains(data, []byte("%EOF")) {
		t.Error("expected a complete PDF trailer")
	}
}

func TestSave_EmptyPath(t *testing.T) {
	t.Parallel()

	if err := New().Save("text", ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSave_MissingDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "draft.pdf")
	if err := New().Save("text", path); err == nil {
		t.Fatal("expected error when the directory does not exist")
	}
}
