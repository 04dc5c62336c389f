package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestDomainSlug(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/org/repo", "github.com"},
		{"https://github.com/other/repo", "github.com"},
		{"https://gitlab.com/org/repo", "gitlab.com"},
		{"https://www.Example.COM:8443/path?q=1", "example.com"},
		{"http://sub.domain.example.org/", "sub.domain.example.org"},
		{"https://xn--bcher-kva.example/", "xn--bcher-kva.example"},
		{"http://[::1]:8080/", "1"},
		{"file:///Users/me/notes.html", "unknown"},
		{"", "unknown"},
		{"::not a url", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainSlug(tt.url))
			assert.Equal(t, DomainSlug(tt.url), DomainSlug(tt.url), "deterministic")
		})
	}
}

func TestPathFor(t *testing.T) {
	root := t.TempDir()
	store := NewMarkdownStore(&Config{ClipsDirectory: root, CreateSubdirs: true})

	github1 := store.PathFor("https://github.com/org/repo")
	github2 := store.PathFor("https://github.com/other/repo")
	gitlab := store.PathFor("https://gitlab.com/org/repo")

	assert.Equal(t, github1, github2)
	assert.NotEqual(t, github1, gitlab)
	assert.Equal(t, filepath.Join(root, "github.com", "github.com.md"), github1)
	assert.Equal(t, filepath.Join(root, "unknown", "unknown.md"), store.PathFor(""))
	assert.Equal(t, filepath.Join(root, "images"), store.ImagesDir())

	flat := NewMarkdownStore(&Config{ClipsDirectory: root})
	assert.Equal(t, filepath.Join(root, "clips.md"), flat.PathFor("https://github.com/org/repo"))
	assert.Equal(t, flat.PathFor("https://github.com/org/repo"), flat.PathFor("https://gitlab.com/x"))
}

func TestRenderRecord(t *testing.T) {
	capturedAt := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	tests := []struct {
		name   string
		record ClipRecord
		want   string
	}{
		{
			name: "all fields",
			record: ClipRecord{
				Title:      "Example",
				URL:        "https://example.com/a",
				CapturedAt: capturedAt,
				Tags:       []string{"#a", "#b"},
				Body:       "Hello\n\n![alt](./images/image_1_0.png)",
			},
			want: "## Example\n" +
				"  **URL**: [Example](https://example.com/a)\n" +
				"  **Date**: [[2024-03-05]]\n" +
				"  **time**: 14:07:09\n" +
				"  - **Tags**: #a #b\n" +
				"\n" +
				"Hello\n\n![alt](./images/image_1_0.png)\n" +
				"\n" +
				"---\n",
		},
		{
			name:   "url without title",
			record: ClipRecord{URL: "https://example.com/a", Body: "text"},
			want:   "  **URL**: <https://example.com/a>\n\ntext\n\n---\n",
		},
		{
			name:   "unknown title without url",
			record: ClipRecord{Title: "unknown", CapturedAt: capturedAt, Body: "text"},
			want:   "## unknown\n  **Date**: [[2024-03-05]]\n  **time**: 14:07:09\n\ntext\n\n---\n",
		},
		{
			name:   "body only",
			record: ClipRecord{Body: "\n\nx\n"},
			want:   "x\n\n---\n",
		},
		{
			name:   "brackets in title",
			record: ClipRecord{Title: "[Draft] Notes", URL: "https://example.com"},
			want:   "## [Draft] Notes\n  **URL**: [\\[Draft\\] Notes](https://example.com)\n\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderRecord(tt.record))
		})
	}
}

func TestMarkdownStoreWriteCreatesFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "clips")
	store := NewMarkdownStore(&Config{ClipsDirectory: root, CreateSubdirs: true})

	record := ClipRecord{Title: "Repo", URL: "https://github.com/org/repo", Body: "content"}
	path, err := store.Write(record)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "github.com", "github.com.md"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RenderRecord(record), string(got))
}

func TestMarkdownStoreAppendPreservesPriorBytes(t *testing.T) {
	tests := []struct {
		name      string
		prior     string
		separator string
	}{
		{"ends with newline", "## Old\n\nold body\n\n---\n", "\n"},
		{"no trailing newline", "hand-written notes", "\n\n"},
		{"binary-ish content", "caf\xc3\xa9 \x00 tail\n", "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			store := NewMarkdownStore(&Config{ClipsDirectory: root, CreateSubdirs: true})
			path := store.PathFor("https://example.com/x")
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(tt.prior), 0644))

			record := ClipRecord{Title: "New", URL: "https://example.com/y", Body: "new body"}
			_, err := store.Write(record)
			require.NoError(t, err)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(string(got), tt.prior), "prior content must be untouched")
			assert.Equal(t, tt.separator+RenderRecord(record), string(got[len(tt.prior):]))
		})
	}
}

func TestMarkdownStoreMultipleAppends(t *testing.T) {
	root := t.TempDir()
	store := NewMarkdownStore(&Config{ClipsDirectory: root})

	first := ClipRecord{Title: "One", Body: "first"}
	second := ClipRecord{Title: "Two", Body: "second"}

	_, err := store.Write(first)
	require.NoError(t, err)
	path, err := store.Write(second)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RenderRecord(first)+"\n"+RenderRecord(second), string(got))
}

func TestMarkdownStoreWriteFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "clips")
	require.NoError(t, os.WriteFile(root, []byte("a file where the directory should be"), 0644))

	store := NewMarkdownStore(&Config{ClipsDirectory: root, CreateSubdirs: true})
	_, err := store.Write(ClipRecord{Body: "x"})

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "create directory", storageErr.Op)
	assert.NotNil(t, errors.Unwrap(storageErr))
}

// markdownImages returns the destinations of every image in src
func markdownImages(t *testing.T, src []byte) []string {
	t.Helper()
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var dests []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			dests = append(dests, string(img.Destination))
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return dests
}

func TestRenderedEntryIsValidMarkdown(t *testing.T) {
	record := ClipRecord{
		Title: "Gallery",
		URL:   "https://example.com/gallery",
		Body:  "Look:\n\n![first](../images/image_1_0.png)\n\n[image unavailable]\n\n![third](../images/image_1_2.jpg)",
	}

	dests := markdownImages(t, []byte(RenderRecord(record)))
	assert.Equal(t, []string{"../images/image_1_0.png", "../images/image_1_2.jpg"}, dests)
}
