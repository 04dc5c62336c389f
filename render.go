package main

import (
	"fmt"
	"strings"
)

const entrySeparator = "---"

// RenderRecord formats one clip entry. The result ends with the separator
// line and a newline.
func RenderRecord(record ClipRecord) string {
	var b strings.Builder

	if record.Title != "" {
		fmt.Fprintf(&b, "## %s\n", singleLine(record.Title))
	}
	if record.URL != "" {
		if record.Title != "" {
			fmt.Fprintf(&b, "  **URL**: [%s](%s)\n", escapeLinkText(singleLine(record.Title)), record.URL)
		} else {
			fmt.Fprintf(&b, "  **URL**: <%s>\n", record.URL)
		}
	}
	if !record.CapturedAt.IsZero() {
		fmt.Fprintf(&b, "  **Date**: [[%s]]\n", record.CapturedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "  **time**: %s\n", record.CapturedAt.Format("15:04:05"))
	}
	if len(record.Tags) > 0 {
		fmt.Fprintf(&b, "  - **Tags**: %s\n", strings.Join(record.Tags, " "))
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	if body := strings.Trim(record.Body, "\n"); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString(entrySeparator)
	b.WriteString("\n")

	return b.String()
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
