package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
)

// PasteboardType names a clipboard representation using macOS UTIs.
// Other platforms translate these to MIME types.
type PasteboardType string

const (
	PasteboardHTML       PasteboardType = "public.html"
	PasteboardLegacyHTML PasteboardType = "Apple HTML pasteboard type"
	PasteboardText       PasteboardType = "public.utf8-plain-text"
	PasteboardPNG        PasteboardType = "public.png"
	PasteboardTIFF       PasteboardType = "public.tiff"
	PasteboardJPEG       PasteboardType = "public.jpeg"
	PasteboardSourceURL  PasteboardType = "org.chromium.source-url"
)

// Pasteboard is the OS clipboard binding
type Pasteboard interface {
	// Data returns the bytes stored for t, or nil when the clipboard
	// does not currently offer t.
	Data(ctx context.Context, t PasteboardType) ([]byte, error)
}

// ClipboardProbe recognizes one kind of clipboard content
type ClipboardProbe interface {
	Name() string
	// Detect returns nil when the pasteboard holds nothing this probe
	// understands.
	Detect(ctx context.Context, pb Pasteboard) (ClipPayload, error)
}

// ClipboardSource classifies the clipboard with an ordered probe chain
type ClipboardSource struct {
	pasteboard Pasteboard
	probes     []ClipboardProbe
	logger     *slog.Logger
}

// NewClipboardSource creates a source with the default probes: HTML, then
// plain text, then image data.
func NewClipboardSource(pb Pasteboard, logger *slog.Logger) *ClipboardSource {
	s := &ClipboardSource{
		pasteboard: pb,
		logger:     logger,
	}

	// Richest representation first
	s.AddProbe(&htmlProbe{})
	s.AddProbe(&textProbe{})
	s.AddProbe(&imageProbe{})

	return s
}

// AddProbe appends a probe to the chain
func (s *ClipboardSource) AddProbe(probe ClipboardProbe) {
	s.probes = append(s.probes, probe)
}

// Read returns the first payload any probe recognizes. It reports false
// when the clipboard is empty or holds nothing supported. Probe failures
// are logged and treated as absence.
func (s *ClipboardSource) Read(ctx context.Context) (ClipPayload, bool) {
	for _, probe := range s.probes {
		payload, err := probe.Detect(ctx, s.pasteboard)
		if err != nil {
			s.logger.Debug("clipboard probe failed", "probe", probe.Name(), "error", err)
			continue
		}
		if payload != nil {
			s.logger.Debug("clipboard classified", "probe", probe.Name(), "kind", payload.Kind())
			return payload, true
		}
	}
	return nil, false
}

type htmlProbe struct{}

func (p *htmlProbe) Name() string { return "html" }

func (p *htmlProbe) Detect(ctx context.Context, pb Pasteboard) (ClipPayload, error) {
	for _, t := range []PasteboardType{PasteboardHTML, PasteboardLegacyHTML} {
		data, err := pb.Data(ctx, t)
		if err != nil {
			return nil, err
		}
		// Some apps put plain text under the HTML type
		if !bytes.ContainsRune(data, '<') || !bytes.ContainsRune(data, '>') {
			continue
		}

		payload := HTMLPayload{HTML: string(data)}
		if src, err := pb.Data(ctx, PasteboardSourceURL); err == nil {
			payload.SourceURL = strings.TrimSpace(string(src))
		}
		return payload, nil
	}
	return nil, nil
}

type textProbe struct{}

func (p *textProbe) Name() string { return "text" }

func (p *textProbe) Detect(ctx context.Context, pb Pasteboard) (ClipPayload, error) {
	data, err := pb.Data(ctx, PasteboardText)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return TextPayload{Text: string(data)}, nil
}

type imageProbe struct{}

func (p *imageProbe) Name() string { return "image" }

var clipboardImageTypes = []struct {
	pbType PasteboardType
	format ImageFormat
}{
	{PasteboardPNG, FormatPNG},
	{PasteboardTIFF, FormatTIFF},
	{PasteboardJPEG, FormatJPEG},
}

func (p *imageProbe) Detect(ctx context.Context, pb Pasteboard) (ClipPayload, error) {
	for _, candidate := range clipboardImageTypes {
		data, err := pb.Data(ctx, candidate.pbType)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			return ImagePayload{Data: data, Format: candidate.format}, nil
		}
	}
	return nil, nil
}
