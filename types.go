package main

import "time"

// PayloadKind identifies which clipboard representation a payload carries
type PayloadKind string

const (
	KindHTML  PayloadKind = "html"
	KindText  PayloadKind = "text"
	KindImage PayloadKind = "image"
)

// ClipPayload is the classified clipboard content. Exactly one of
// HTMLPayload, TextPayload or ImagePayload.
type ClipPayload interface {
	Kind() PayloadKind
}

// HTMLPayload holds rich text copied from a browser
type HTMLPayload struct {
	HTML string
	// SourceURL is the page the selection came from, when the
	// pasteboard advertises one (Chromium does).
	SourceURL string
}

func (HTMLPayload) Kind() PayloadKind { return KindHTML }

// TextPayload holds plain text. Text may contain ill-formed UTF-8.
type TextPayload struct {
	Text string
}

func (TextPayload) Kind() PayloadKind { return KindText }

// ImagePayload holds a directly copied image
type ImagePayload struct {
	Data   []byte
	Format ImageFormat
}

func (ImagePayload) Kind() PayloadKind { return KindImage }

// BrowserContext is the active tab at clip time. Empty fields are absent.
type BrowserContext struct {
	URL   string
	Title string
}

// Available reports whether any browser information was found
func (b BrowserContext) Available() bool {
	return b.URL != "" || b.Title != ""
}

// RemoteImageRef is an image found while converting HTML. Placeholder
// appears exactly once in the converted Markdown.
type RemoteImageRef struct {
	SourceURL   string
	Alt         string
	Placeholder string
	Offset      int
}

// ConvertedContent is the Markdown produced from a payload
type ConvertedContent struct {
	Markdown  string
	ImageRefs []RemoteImageRef
	// LocalImage is set for direct image copies and written by the fetcher
	LocalImage *ImagePayload
}

// StoredImage is an image file written for a clip
type StoredImage struct {
	LocalPath     string // relative to the Markdown file, slash separated
	FilePath      string // absolute path on disk
	SequenceIndex int
	Format        ImageFormat
	SourceURL     string
}

// ClipRecord is one fully assembled entry. Zero values mean the field is
// not rendered.
type ClipRecord struct {
	Title      string
	URL        string
	CapturedAt time.Time
	Tags       []string
	Body       string
}

// ClipResult tracks the outcome of a clip
type ClipResult struct {
	ID            string
	FilePath      string
	URL           string
	Title         string
	Kind          PayloadKind
	ContentLength int
	CapturedAt    time.Time
	Images        []StoredImage
	SkippedImages int
}
