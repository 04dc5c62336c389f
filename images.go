package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	imageUnavailableMarker = "[image unavailable]"
	maxImageBytes          = 25 << 20
	defaultUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var errEmptyImage = errors.New("empty image body")

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// ImageFetcher downloads images referenced by a clip and stores them
// next to the Markdown files
type ImageFetcher struct {
	client        *http.Client
	timeout       time.Duration
	maxConcurrent int
	userAgent     string
	logger        *slog.Logger
}

// NewImageFetcher creates a fetcher from the image settings
func NewImageFetcher(cfg ImageConfig, logger *slog.Logger) *ImageFetcher {
	f := &ImageFetcher{
		client:        &http.Client{},
		timeout:       cfg.Timeout,
		maxConcurrent: cfg.MaxConcurrent,
		userAgent:     cfg.UserAgent,
		logger:        logger,
	}
	if f.timeout <= 0 {
		f.timeout = 10 * time.Second
	}
	if f.maxConcurrent <= 0 {
		f.maxConcurrent = 4
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	return f
}

// fetched is the outcome for one image, kept at its document index
type fetched struct {
	data   []byte
	format ImageFormat
	err    error
}

// Localize downloads every image in content and rewrites its placeholder to
// a path relative to linkDir, the directory of the Markdown file. Failed
// images become an "[image unavailable]" marker. A direct image payload is
// written and appended to the body. The only error is failing to create
// imagesDir.
func (f *ImageFetcher) Localize(ctx context.Context, content ConvertedContent, capturedAt time.Time, imagesDir, linkDir string) (string, []StoredImage, error) {
	body := content.Markdown
	if len(content.ImageRefs) == 0 && content.LocalImage == nil {
		return body, nil, nil
	}

	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return "", nil, &StorageError{Op: "create images directory", Path: imagesDir, Err: err}
	}

	epoch := capturedAt.Unix()
	offset := nextImageIndex(imagesDir, epoch)

	if content.LocalImage != nil {
		return f.storeLocal(body, *content.LocalImage, epoch, offset, imagesDir, linkDir)
	}

	results := f.fetchAll(ctx, content.ImageRefs)

	var stored []StoredImage
	replacements := make([]string, 0, 2*len(content.ImageRefs))
	for i, ref := range content.ImageRefs {
		index := offset + i
		res := results[i]

		if res.err == nil {
			var img StoredImage
			img, res.err = writeImage(imagesDir, linkDir, epoch, index, res.format, res.data)
			if res.err == nil {
				img.SourceURL = ref.SourceURL
				stored = append(stored, img)
				replacements = append(replacements, ref.Placeholder, imageMarkdown(ref.Alt, img.LocalPath))
				f.logger.Debug("image saved", "url", logURL(ref.SourceURL), "path", img.FilePath)
				continue
			}
		}

		f.logger.Warn("skipping image", "url", logURL(ref.SourceURL), "index", index, "error", res.err)
		replacements = append(replacements, ref.Placeholder, imageUnavailableMarker)
	}

	return strings.NewReplacer(replacements...).Replace(body), stored, nil
}

func (f *ImageFetcher) storeLocal(body string, img ImagePayload, epoch int64, index int, imagesDir, linkDir string) (string, []StoredImage, error) {
	format := img.Format
	if format == "" {
		format = sniffFormat(img.Data)
	}
	if format == "" {
		format = defaultImageFormat
	}

	stored, err := writeImage(imagesDir, linkDir, epoch, index, format, img.Data)
	if err != nil {
		f.logger.Warn("skipping clipboard image", "error", err)
		return appendBlock(body, imageUnavailableMarker), nil, nil
	}
	return appendBlock(body, imageMarkdown("image", stored.LocalPath)), []StoredImage{stored}, nil
}

// fetchAll downloads refs with bounded concurrency. results[i] always
// belongs to refs[i].
func (f *ImageFetcher) fetchAll(ctx context.Context, refs []RemoteImageRef) []fetched {
	results := make([]fetched, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)
	for i, ref := range refs {
		g.Go(func() error {
			data, format, err := f.fetch(ctx, ref.SourceURL)
			results[i] = fetched{data: data, format: format, err: err}
			// per-image failures never cancel the others
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *ImageFetcher) fetch(ctx context.Context, rawURL string) ([]byte, ImageFormat, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURI(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("unsupported image URL %q", logURL(rawURL))
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/*;q=0.8,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isImageContentType(contentType) {
		return nil, "", fmt.Errorf("not an image: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errEmptyImage
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	format := formatFromContentType(contentType)
	if format == "" {
		format = sniffFormat(data)
	}
	if format == "" {
		format = formatFromURL(rawURL)
	}
	if format == "" {
		format = defaultImageFormat
	}

	if err := checkDecodable(data, format); err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// decodeDataURI handles inline data: image sources
func decodeDataURI(raw string) ([]byte, ImageFormat, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, "", errors.New("malformed data URI")
	}

	var data []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data URI: %w", err)
		}
		data = decoded
		header = strings.TrimSuffix(header, ";base64")
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data URI: %w", err)
		}
		data = []byte(unescaped)
	}
	if len(data) == 0 {
		return nil, "", errEmptyImage
	}

	format := formatFromContentType(header)
	if format == "" {
		format = sniffFormat(data)
	}
	if format == "" {
		return nil, "", fmt.Errorf("unsupported data URI type %q", header)
	}
	if err := checkDecodable(data, format); err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// writeImage creates image_<epoch>_<index>.<ext>, refusing to replace an
// existing file
func writeImage(imagesDir, linkDir string, epoch int64, index int, format ImageFormat, data []byte) (StoredImage, error) {
	name := fmt.Sprintf("image_%d_%d.%s", epoch, index, format)
	path := filepath.Join(imagesDir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return StoredImage{}, fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return StoredImage{}, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return StoredImage{}, fmt.Errorf("closing %s: %w", name, err)
	}

	return StoredImage{
		LocalPath:     relativeLink(linkDir, path),
		FilePath:      path,
		SequenceIndex: index,
		Format:        format,
	}, nil
}

var imageNamePattern = regexp.MustCompile(`^image_(\d+)_(\d+)\.[A-Za-z0-9]+$`)

// nextImageIndex returns the first index past any image already stored for
// epoch, so two clips in the same second never collide
func nextImageIndex(imagesDir string, epoch int64) int {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return 0
	}

	next := 0
	want := strconv.FormatInt(epoch, 10)
	for _, entry := range entries {
		m := imageNamePattern.FindStringSubmatch(entry.Name())
		if m == nil || m[1] != want {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// relativeLink builds a slash-separated link from linkDir to target,
// always starting with ./ or ../
func relativeLink(linkDir, target string) string {
	rel, err := filepath.Rel(linkDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

func imageMarkdown(alt, link string) string {
	alt = strings.NewReplacer("[", "", "]", "").Replace(alt)
	return fmt.Sprintf("![%s](%s)", alt, link)
}

func appendBlock(body, block string) string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return block
	}
	return body + "\n\n" + block
}

// logURL shortens data: URIs for log output
func logURL(raw string) string {
	if strings.HasPrefix(raw, "data:") && len(raw) > 48 {
		return raw[:48] + "..."
	}
	return raw
}
