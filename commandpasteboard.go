package main

import (
	"context"
	"slices"
	"strings"
)

type clipboardTool string

const (
	toolNone    clipboardTool = ""
	toolXclip   clipboardTool = "xclip"
	toolWlPaste clipboardTool = "wl-paste"
)

// mimeTypes maps pasteboard types to the MIME targets X11 and Wayland
// clipboards advertise
var mimeTypes = map[PasteboardType]string{
	PasteboardHTML:      "text/html",
	PasteboardPNG:       "image/png",
	PasteboardTIFF:      "image/tiff",
	PasteboardJPEG:      "image/jpeg",
	PasteboardSourceURL: "chromium/x-source-url",
}

// commandPasteboard reads the clipboard through xclip or wl-paste. Plain
// text goes through readText, which works without either tool on Windows.
type commandPasteboard struct {
	run      commandRunner
	readText func() (string, error)
	tool     clipboardTool

	targets []string
	listed  bool
}

func newCommandPasteboard(run commandRunner, readText func() (string, error), tool clipboardTool) *commandPasteboard {
	return &commandPasteboard{run: run, readText: readText, tool: tool}
}

func (p *commandPasteboard) Data(ctx context.Context, t PasteboardType) ([]byte, error) {
	if t == PasteboardText {
		text, err := p.readText()
		if err != nil {
			return nil, err
		}
		if text == "" {
			return nil, nil
		}
		return []byte(text), nil
	}

	mimeType, ok := mimeTypes[t]
	if !ok || p.tool == toolNone {
		return nil, nil
	}

	targets, err := p.listTargets(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(targets, mimeType) {
		return nil, nil
	}

	var out []byte
	switch p.tool {
	case toolWlPaste:
		out, err = p.run(ctx, "wl-paste", "--no-newline", "--type", mimeType)
	default:
		out, err = p.run(ctx, "xclip", "-selection", "clipboard", "-t", mimeType, "-o")
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// listTargets asks the tool once per invocation which types are on offer
func (p *commandPasteboard) listTargets(ctx context.Context) ([]string, error) {
	if p.listed {
		return p.targets, nil
	}

	var out []byte
	var err error
	switch p.tool {
	case toolWlPaste:
		out, err = p.run(ctx, "wl-paste", "--list-types")
	default:
		out, err = p.run(ctx, "xclip", "-selection", "clipboard", "-t", "TARGETS", "-o")
	}
	if err != nil {
		return nil, err
	}

	p.targets = strings.Fields(string(out))
	p.listed = true
	return p.targets, nil
}
