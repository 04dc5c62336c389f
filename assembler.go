package main

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
)

const unknownTitle = "unknown"

// Assemble builds the record to persist. Optional fields are populated
// according to the include_title and include_timestamp settings.
func Assemble(body string, browser BrowserContext, tags []string, capturedAt time.Time, cfg *Config) ClipRecord {
	record := ClipRecord{
		URL:  browser.URL,
		Tags: NormalizeTags(tags),
		Body: body,
	}

	if cfg.IncludeTitle {
		record.Title = browser.Title
		if record.Title == "" {
			record.Title = unknownTitle
		}
	}
	if cfg.IncludeTimestamp {
		record.CapturedAt = capturedAt
	}

	return record
}

// SplitTags splits comma-separated tag arguments
func SplitTags(args []string) []string {
	var tags []string
	for _, arg := range args {
		tags = append(tags, strings.Split(arg, ",")...)
	}
	return tags
}

// NormalizeTags turns raw tags into #tag form. Duplicates are detected with
// Unicode case folding; the first spelling and the input order are kept.
func NormalizeTags(raw []string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)

	var tags []string
	for _, tag := range raw {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		tag = strings.Join(strings.FieldsFunc(tag, unicode.IsSpace), "-")
		if tag == "" {
			continue
		}

		key := fold.String(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, "#"+tag)
	}
	return tags
}
