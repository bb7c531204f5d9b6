// Package imgbb provides an image.Uploader that hosts local files on
// imgbb.com so URL-only captioning backends can read them.
package imgbb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MrWong99/aura/pkg/provider/image"
)

const (
	defaultEndpoint = "https://api.imgbb.com/1/upload"
	defaultTimeout  = 60 * time.Second
)

var _ image.Uploader = (*Uploader)(nil)

// Option is a functional option for Uploader.
type Option func(*Uploader)

// WithEndpoint overrides the upload URL.
func WithEndpoint(u string) Option {
	return func(up *Uploader) { up.endpoint = u }
}

// WithExpiration asks imgbb to delete the upload after d (60 s to 180 days).
// Zero keeps the image indefinitely.
func WithExpiration(d time.Duration) Option {
	return func(up *Uploader) { up.expiration = d }
}

// Uploader implements image.Uploader against the imgbb v1 API.
type Uploader struct {
	apiKey     string
	endpoint   string
	expiration time.Duration
	httpClient *http.Client
}

// New creates an Uploader using the given imgbb API key.
func New(apiKey string, opts ...Option) (*Uploader, error) {
	if apiKey == "" {
		return nil, errors.New("imgbb: apiKey must not be empty")
	}
	up := &Uploader{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(up)
	}
	return up, nil
}

type uploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload implements image.Uploader.
func (up *Uploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("imgbb: open %q: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("key", up.apiKey); err != nil {
		return "", fmt.Errorf("imgbb: write key field: %w", err)
	}
	if up.expiration > 0 {
		if err := mw.WriteField("expiration", fmt.Sprint(int(up.expiration.Seconds()))); err != nil {
			return "", fmt.Errorf("imgbb: write expiration field: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("imgbb: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", fmt.Errorf("imgbb: read %q: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("imgbb: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, up.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("imgbb: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := up.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb: upload: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imgbb: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("imgbb: upload returned HTTP %d: %s", resp.StatusCode, out.Error.Message)
	}
	if out.Data.URL == "" {
		return "", errors.New("imgbb: response carries no image URL")
	}
	return out.Data.URL, nil
}
