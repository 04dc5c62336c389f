package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNoClipboardContent means the clipboard held nothing that can be clipped
var ErrNoClipboardContent = errors.New("clipboard is empty or holds no supported content")

type clipboardReader interface {
	Read(ctx context.Context) (ClipPayload, bool)
}

type tabReader interface {
	ReadActiveTab(ctx context.Context) BrowserContext
}

// Clipper runs the clip pipeline: read, convert, localize images, assemble
// and append
type Clipper struct {
	clipboard clipboardReader
	browser   tabReader
	converter *Converter
	fetcher   *ImageFetcher
	store     *MarkdownStore
	cfg       *Config
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewClipper wires the pipeline stages
func NewClipper(cfg *Config, clipboard clipboardReader, browser tabReader, logger *slog.Logger) *Clipper {
	return &Clipper{
		clipboard: clipboard,
		browser:   browser,
		converter: NewConverter(logger),
		fetcher:   NewImageFetcher(cfg.Images, logger),
		store:     NewMarkdownStore(cfg),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Clip captures the current clipboard and appends it to the clips
// directory. Only an empty clipboard or a storage failure is an error.
func (c *Clipper) Clip(ctx context.Context, tags []string) (*ClipResult, error) {
	id := c.newID()
	logger := c.logger.With("clip_id", id)

	logger.Info("→ Reading clipboard")
	payload, ok := c.clipboard.Read(ctx)
	if !ok {
		return nil, ErrNoClipboardContent
	}

	browser := c.browser.ReadActiveTab(ctx)
	if !browser.Available() {
		logger.Info("browser context unavailable")
	}
	if html, isHTML := payload.(HTMLPayload); isHTML && browser.URL == "" && html.SourceURL != "" {
		browser.URL = normalizeBrowserContext(BrowserContext{URL: html.SourceURL}).URL
	}

	capturedAt := c.now()

	logger.Info("→ Converting content", "kind", payload.Kind(), "url", browser.URL)
	converted := c.converter.Convert(payload, browser.URL)

	target := c.store.PathFor(browser.URL)
	imageCount := len(converted.ImageRefs)
	if converted.LocalImage != nil {
		imageCount = 1
	}
	if imageCount > 0 {
		logger.Info("→ Saving images", "count", imageCount)
	}

	body, images, err := c.fetcher.Localize(ctx, converted, capturedAt, c.store.ImagesDir(), filepath.Dir(target))
	if err != nil {
		return nil, fmt.Errorf("localizing images: %w", err)
	}

	record := Assemble(body, browser, tags, capturedAt, c.cfg)

	path, err := c.store.Write(record)
	if err != nil {
		return nil, fmt.Errorf("saving clip: %w", err)
	}
	logger.Info("✓ Saved clip", "path", path, "images", len(images))

	return &ClipResult{
		ID:            id,
		FilePath:      path,
		URL:           record.URL,
		Title:         browser.Title,
		Kind:          payload.Kind(),
		ContentLength: len(body),
		CapturedAt:    capturedAt,
		Images:        images,
		SkippedImages: imageCount - len(images),
	}, nil
}
