//go:build darwin

package main

import (
	"context"
	"runtime"

	"github.com/progrium/darwinkit/macos/appkit"
)

// darwinPasteboard reads the general NSPasteboard
type darwinPasteboard struct {
	pb appkit.Pasteboard
}

func newSystemPasteboard() Pasteboard {
	// AppKit calls must stay on one OS thread
	runtime.LockOSThread()

	return &darwinPasteboard{pb: appkit.Pasteboard_GeneralPasteboard()}
}

func (p *darwinPasteboard) Data(ctx context.Context, t PasteboardType) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch t {
	case PasteboardText, PasteboardSourceURL:
		if s := p.pb.StringForType(appkit.PasteboardType(t)); s != "" {
			return []byte(s), nil
		}
		return nil, nil
	default:
		data := p.pb.DataForType(appkit.PasteboardType(t))
		if len(data) == 0 {
			return nil, nil
		}
		return data, nil
	}
}
