package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipboardSourceDetectionOrder(t *testing.T) {
	html := []byte(`<p>Hello <b>world</b></p>`)
	text := []byte("Hello world")
	img := []byte("\x89PNG fake")

	tests := []struct {
		name     string
		data     map[PasteboardType][]byte
		wantKind PayloadKind
		wantOK   bool
	}{
		{
			name:     "html wins over text and image",
			data:     map[PasteboardType][]byte{PasteboardHTML: html, PasteboardText: text, PasteboardPNG: img},
			wantKind: KindHTML,
			wantOK:   true,
		},
		{
			name:     "text wins over image",
			data:     map[PasteboardType][]byte{PasteboardText: text, PasteboardPNG: img},
			wantKind: KindText,
			wantOK:   true,
		},
		{
			name:     "image only",
			data:     map[PasteboardType][]byte{PasteboardTIFF: img},
			wantKind: KindImage,
			wantOK:   true,
		},
		{
			name:     "legacy html type",
			data:     map[PasteboardType][]byte{PasteboardLegacyHTML: html},
			wantKind: KindHTML,
			wantOK:   true,
		},
		{
			name:     "html type without markup falls through to text",
			data:     map[PasteboardType][]byte{PasteboardHTML: []byte("no markup"), PasteboardText: text},
			wantKind: KindText,
			wantOK:   true,
		},
		{
			name:     "whitespace-only text is empty",
			data:     map[PasteboardType][]byte{PasteboardText: []byte(" \n\t ")},
			wantOK:   false,
		},
		{
			name:   "empty clipboard",
			data:   nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewClipboardSource(&fakePasteboard{data: tt.data}, discardLogger())

			payload, ok := source.Read(context.Background())
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, payload)
				return
			}
			assert.Equal(t, tt.wantKind, payload.Kind())
		})
	}
}

func TestClipboardSourceHTMLSourceURL(t *testing.T) {
	pb := &fakePasteboard{data: map[PasteboardType][]byte{
		PasteboardHTML:      []byte("<p>quote</p>"),
		PasteboardSourceURL: []byte(" https://example.com/article \n"),
	}}

	payload, ok := NewClipboardSource(pb, discardLogger()).Read(context.Background())
	require.True(t, ok)

	html, isHTML := payload.(HTMLPayload)
	require.True(t, isHTML)
	assert.Equal(t, "<p>quote</p>", html.HTML)
	assert.Equal(t, "https://example.com/article", html.SourceURL)
}

func TestClipboardSourceImageFormats(t *testing.T) {
	pb := &fakePasteboard{data: map[PasteboardType][]byte{
		PasteboardJPEG: []byte("jpeg"),
		PasteboardTIFF: []byte("tiff"),
	}}

	payload, ok := NewClipboardSource(pb, discardLogger()).Read(context.Background())
	require.True(t, ok)

	img := payload.(ImagePayload)
	assert.Equal(t, FormatTIFF, img.Format)
	assert.Equal(t, []byte("tiff"), img.Data)
}

func TestClipboardSourceProbeErrorIsAbsence(t *testing.T) {
	pb := &fakePasteboard{
		data: map[PasteboardType][]byte{PasteboardText: []byte("fallback")},
		errs: map[PasteboardType]error{PasteboardHTML: errors.New("pasteboard busy")},
	}

	payload, ok := NewClipboardSource(pb, discardLogger()).Read(context.Background())
	require.True(t, ok)
	assert.Equal(t, TextPayload{Text: "fallback"}, payload)
}

type stubProbe struct {
	payload ClipPayload
}

func (p *stubProbe) Name() string { return "stub" }

func (p *stubProbe) Detect(ctx context.Context, pb Pasteboard) (ClipPayload, error) {
	return p.payload, nil
}

func TestClipboardSourceAddProbe(t *testing.T) {
	source := &ClipboardSource{pasteboard: &fakePasteboard{}, logger: discardLogger()}
	source.AddProbe(&stubProbe{})
	source.AddProbe(&stubProbe{payload: TextPayload{Text: "second"}})

	require.Len(t, source.probes, 2)

	payload, ok := source.Read(context.Background())
	require.True(t, ok)
	assert.Equal(t, TextPayload{Text: "second"}, payload)
}

func TestCommandPasteboardXclip(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"xclip -selection clipboard -t TARGETS -o":   "TARGETS\nUTF8_STRING\ntext/html\nchromium/x-source-url\n",
		"xclip -selection clipboard -t text/html -o": "<b>bold</b>",
		"xclip -selection clipboard -t chromium/x-source-url -o": "https://example.com/",
	}}
	pb := newCommandPasteboard(runner.run, func() (string, error) { return "plain", nil }, toolXclip)
	ctx := context.Background()

	html, err := pb.Data(ctx, PasteboardHTML)
	require.NoError(t, err)
	assert.Equal(t, "<b>bold</b>", string(html))

	png, err := pb.Data(ctx, PasteboardPNG)
	require.NoError(t, err)
	assert.Nil(t, png, "types not advertised are not requested")

	src, err := pb.Data(ctx, PasteboardSourceURL)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", string(src))

	text, err := pb.Data(ctx, PasteboardText)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(text))

	targetCalls := 0
	for _, call := range runner.calls {
		if call == "xclip -selection clipboard -t TARGETS -o" {
			targetCalls++
		}
	}
	assert.Equal(t, 1, targetCalls, "targets are listed once")
}

func TestCommandPasteboardWayland(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"wl-paste --list-types":                 "image/png\n",
		"wl-paste --no-newline --type image/png": "\x89PNG",
	}}
	pb := newCommandPasteboard(runner.run, func() (string, error) { return "", nil }, toolWlPaste)

	data, err := pb.Data(context.Background(), PasteboardPNG)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data))

	text, err := pb.Data(context.Background(), PasteboardText)
	require.NoError(t, err)
	assert.Nil(t, text)
}

func TestCommandPasteboardWithoutTool(t *testing.T) {
	runner := &fakeRunner{}
	pb := newCommandPasteboard(runner.run, func() (string, error) { return "only text", nil }, toolNone)

	html, err := pb.Data(context.Background(), PasteboardHTML)
	require.NoError(t, err)
	assert.Nil(t, html)
	assert.Empty(t, runner.calls)

	payload, ok := NewClipboardSource(pb, discardLogger()).Read(context.Background())
	require.True(t, ok)
	assert.Equal(t, TextPayload{Text: "only text"}, payload)
}
