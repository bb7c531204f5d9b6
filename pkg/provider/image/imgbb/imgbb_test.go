package imgbb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cat.png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_EmptyKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestUpload_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("key") != "k1" {
			t.Errorf("key = %q", r.FormValue("key"))
		}
		if r.FormValue("expiration") != "600" {
			t.Errorf("expiration = %q", r.FormValue("expiration"))
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			if string(data) != "\x89PNG fake" || hdr.Filename != "cat.png" {
				t.Errorf("unexpected upload %q (%d bytes)", hdr.Filename, len(data))
			}
		}
		_, _ = w.Write([]byte(`{"data":{"url":"https://i.ibb.co/x/cat.png"},"success":true,"status":200}`))
	}))
	defer srv.Close()

	up, _ := New("k1", WithEndpoint(srv.URL), WithExpiration(10*time.Minute))
	u, err := up.Upload(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if u != "https://i.ibb.co/x/cat.png" {
		t.Errorf("url = %q", u)
	}
}

func TestUpload_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status_code":400,"error":{"message":"Invalid API v1 key."}}`))
	}))
	defer srv.Close()

	up, _ := New("bad", WithEndpoint(srv.URL))
	if _, err := up.Upload(context.Background(), writeImage(t)); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestUpload_MissingFile(t *testing.T) {
	up, _ := New("k")
	if _, err := up.Upload(context.Background(), "/does/not/exist.png"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
