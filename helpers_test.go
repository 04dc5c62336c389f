package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePasteboard serves fixed data per type
type fakePasteboard struct {
	data map[PasteboardType][]byte
	errs map[PasteboardType]error
}

func (p *fakePasteboard) Data(ctx context.Context, t PasteboardType) ([]byte, error) {
	if err := p.errs[t]; err != nil {
		return nil, err
	}
	return p.data[t], nil
}

// fakeTabSource returns a canned tab
type fakeTabSource struct {
	name  string
	app   string
	tab   BrowserContext
	err   error
	calls int
}

func (s *fakeTabSource) Name() string    { return s.name }
func (s *fakeTabSource) AppName() string { return s.app }

func (s *fakeTabSource) ActiveTab(ctx context.Context) (BrowserContext, error) {
	s.calls++
	return s.tab, s.err
}

// fixedTab implements tabReader
type fixedTab BrowserContext

func (f fixedTab) ReadActiveTab(ctx context.Context) BrowserContext {
	return BrowserContext(f)
}

// fakeRunner records commands and answers from a table keyed by the
// joined command line
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, key)
	if err, ok := r.errs[key]; ok {
		return nil, err
	}
	out, ok := r.outputs[key]
	if !ok {
		return nil, fmt.Errorf("unexpected command %q", key)
	}
	return []byte(out), nil
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func testConfig(dir string) *Config {
	return &Config{
		ClipsDirectory:   dir,
		CreateSubdirs:    true,
		IncludeTitle:     true,
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		Images: ImageConfig{
			Timeout:       2 * time.Second,
			MaxConcurrent: 4,
			UserAgent:     "web-clipper-test",
		},
		LogLevel: "info",
	}
}
