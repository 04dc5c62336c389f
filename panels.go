package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("2")
	colorError   = lipgloss.Color("1")
	colorWarning = lipgloss.Color("3")
	colorMuted   = lipgloss.Color("245")

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// field is one label/value row of a panel
type field struct {
	label string
	value string
}

func renderPanel(title string, color lipgloss.Color, fields []field, footer string) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label))
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)}
	if len(fields) > 0 {
		lines = append(lines, "")
	}
	for _, f := range fields {
		label := labelStyle.Render(fmt.Sprintf("%-*s", width+1, f.label+":"))
		lines = append(lines, label+" "+f.value)
	}
	if footer != "" {
		lines = append(lines, "", footer)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func renderClipSummary(result *ClipResult, cfg *Config) string {
	fields := []field{
		{"File", result.FilePath},
		{"Type", string(result.Kind)},
		{"Captured", result.CapturedAt.Format(cfg.TimestampFormat)},
	}
	if result.URL != "" {
		fields = append(fields, field{"URL", result.URL})
	}
	if result.Title != "" {
		fields = append(fields, field{"Title", result.Title})
	}
	fields = append(fields, field{"Content", fmt.Sprintf("%d characters", result.ContentLength)})
	if len(result.Images) > 0 || result.SkippedImages > 0 {
		images := fmt.Sprintf("%d saved", len(result.Images))
		if result.SkippedImages > 0 {
			images += fmt.Sprintf(", %d unavailable", result.SkippedImages)
		}
		fields = append(fields, field{"Images", images})
	}

	color := colorSuccess
	if result.SkippedImages > 0 {
		color = colorWarning
	}
	return renderPanel("✓ Clip saved", color, fields, "")
}

func renderError(err error) string {
	if errors.Is(err, ErrNoClipboardContent) {
		return renderPanel("✗ No Content", colorWarning, nil,
			"Copy some text, a web page selection or an image first.")
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return renderPanel("✗ Could not save clip", colorError, []field{
			{"Path", storageErr.Path},
			{"Reason", storageErr.Err.Error()},
		}, "")
	}
	return renderPanel("✗ Error", colorError, nil, err.Error())
}
