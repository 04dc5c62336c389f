//go:build !darwin

package main

import (
	"os"
	"os/exec"

	"github.com/atotto/clipboard"
)

func newSystemPasteboard() Pasteboard {
	return newCommandPasteboard(runCommand, clipboard.ReadAll, detectClipboardTool())
}

// detectClipboardTool picks wl-paste under Wayland, xclip otherwise. An
// empty result leaves only plain text available.
func detectClipboardTool() clipboardTool {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, err := exec.LookPath("wl-paste"); err == nil {
			return toolWlPaste
		}
	}
	if _, err := exec.LookPath("xclip"); err == nil {
		return toolXclip
	}
	return toolNone
}
