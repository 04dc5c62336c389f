package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	unknownDomain = "unknown"
	flatFileName  = "clips.md"
	imagesDirName = "images"
)

// StorageError is a fatal failure writing clips to disk
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9.-]+`)
	slugRepeats      = regexp.MustCompile(`([.-])[.-]+`)
)

// DomainSlug derives a filesystem-safe name from the URL host. Paths and
// ports are ignored, so every page of a site maps to the same slug.
func DomainSlug(rawURL string) string {
	if rawURL == "" {
		return unknownDomain
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return unknownDomain
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = slugInvalidChars.ReplaceAllString(host, "-")
	host = slugRepeats.ReplaceAllString(host, "$1")
	host = strings.Trim(host, ".-")

	if host == "" {
		return unknownDomain
	}
	return host
}

// MarkdownStore appends rendered clips under the clips directory
type MarkdownStore struct {
	root          string
	createSubdirs bool
}

// NewMarkdownStore creates a store rooted at cfg.ClipsDirectory
func NewMarkdownStore(cfg *Config) *MarkdownStore {
	return &MarkdownStore{
		root:          cfg.ClipsDirectory,
		createSubdirs: cfg.CreateSubdirs,
	}
}

// PathFor returns the Markdown file a clip from rawURL belongs in. With
// subdirectories each domain gets <root>/<slug>/<slug>.md, otherwise every
// clip shares <root>/clips.md.
func (s *MarkdownStore) PathFor(rawURL string) string {
	if !s.createSubdirs {
		return filepath.Join(s.root, flatFileName)
	}
	slug := DomainSlug(rawURL)
	return filepath.Join(s.root, slug, slug+".md")
}

// ImagesDir is where image files for every clip are stored
func (s *MarkdownStore) ImagesDir() string {
	return filepath.Join(s.root, imagesDirName)
}

// Write appends record to its domain file with a single write call. Prior
// content of the file is never modified.
func (s *MarkdownStore) Write(record ClipRecord) (string, error) {
	path := s.PathFor(record.URL)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &StorageError{Op: "create directory", Path: filepath.Dir(path), Err: err}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", &StorageError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	prefix, err := separatorFor(path)
	if err != nil {
		return "", &StorageError{Op: "inspect", Path: path, Err: err}
	}

	if _, err := io.WriteString(file, prefix+RenderRecord(record)); err != nil {
		return "", &StorageError{Op: "append", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &StorageError{Op: "close", Path: path, Err: err}
	}

	return path, nil
}

// separatorFor returns the blank-line separator that goes before a new
// entry, depending on how the existing file ends
func separatorFor(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return "", err
	}
	if last[0] == '\n' {
		return "\n", nil
	}
	return "\n\n", nil
}
