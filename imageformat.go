package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"path"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageFormat is a lowercase file extension without the dot
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpg"
	FormatGIF  ImageFormat = "gif"
	FormatWebP ImageFormat = "webp"
	FormatSVG  ImageFormat = "svg"
	FormatTIFF ImageFormat = "tiff"
	FormatBMP  ImageFormat = "bmp"
	FormatICO  ImageFormat = "ico"
	FormatAVIF ImageFormat = "avif"
)

const defaultImageFormat = FormatPNG

// formatFromContentType maps an image MIME type to a format. Returns ""
// for anything that is not a known image type.
func formatFromContentType(contentType string) ImageFormat {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "image/png":
		return FormatPNG
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return FormatJPEG
	case "image/gif":
		return FormatGIF
	case "image/webp":
		return FormatWebP
	case "image/svg+xml":
		return FormatSVG
	case "image/tiff":
		return FormatTIFF
	case "image/bmp", "image/x-ms-bmp":
		return FormatBMP
	case "image/x-icon", "image/vnd.microsoft.icon":
		return FormatICO
	case "image/avif":
		return FormatAVIF
	default:
		return ""
	}
}

// formatFromURL derives a format from the extension of the URL path.
// Extensions longer than four characters or with non-alphanumerics are
// ignored.
func formatFromURL(rawURL string) ImageFormat {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if ext == "" || len(ext) > 4 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if ext == "jpeg" {
		return FormatJPEG
	}
	if ext == "tif" {
		return FormatTIFF
	}
	return ImageFormat(ext)
}

// sniffFormat inspects the leading bytes of data
func sniffFormat(data []byte) ImageFormat {
	if format := formatFromContentType(http.DetectContentType(data)); format != "" {
		return format
	}
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return FormatTIFF
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.Contains(head, []byte("<svg")) {
		return FormatSVG
	}
	return ""
}

// isImageContentType reports whether a response Content-Type can carry
// image bytes. Generic binary types are accepted and sniffed later.
func isImageContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") ||
		mediaType == "application/octet-stream" ||
		mediaType == "binary/octet-stream"
}

// normalizeClipboardImage re-encodes formats most Markdown viewers cannot
// show (TIFF, BMP) as PNG. Other formats pass through untouched.
func normalizeClipboardImage(img ImagePayload) (ImagePayload, error) {
	var decode func([]byte) (image.Image, error)
	switch img.Format {
	case FormatTIFF:
		decode = func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) }
	case FormatBMP:
		decode = func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) }
	default:
		return img, nil
	}

	decoded, err := decode(img.Data)
	if err != nil {
		return img, fmt.Errorf("decoding %s image: %w", img.Format, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return img, fmt.Errorf("encoding png: %w", err)
	}
	return ImagePayload{Data: buf.Bytes(), Format: FormatPNG}, nil
}

// checkDecodable rejects raster payloads whose header does not parse.
// Vector and container formats without a registered decoder are trusted.
func checkDecodable(data []byte, format ImageFormat) error {
	switch format {
	case FormatSVG, FormatICO, FormatAVIF:
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("unreadable %s image: %w", format, err)
	}
	return nil
}
