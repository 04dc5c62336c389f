package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"strings"
	"time"
)

const browserQueryTimeout = 5 * time.Second

// TabSource reports the active tab of one browser
type TabSource interface {
	Name() string
	// AppName is the process name shown by System Events when frontmost
	AppName() string
	ActiveTab(ctx context.Context) (BrowserContext, error)
}

// BrowserReader finds the active tab of the frontmost supported browser
type BrowserReader struct {
	sources   []TabSource
	frontmost func(ctx context.Context) (string, error)
	timeout   time.Duration
	logger    *slog.Logger
}

// NewBrowserReader creates a reader that tries sources in order. The
// frontmost browser, when one of them, is tried first.
func NewBrowserReader(sources []TabSource, frontmost func(ctx context.Context) (string, error), logger *slog.Logger) *BrowserReader {
	return &BrowserReader{
		sources:   sources,
		frontmost: frontmost,
		timeout:   browserQueryTimeout,
		logger:    logger,
	}
}

// NewSystemBrowserReader queries Chrome and Safari via AppleScript. Other
// platforms get a reader with no sources.
func NewSystemBrowserReader(logger *slog.Logger) *BrowserReader {
	if runtime.GOOS != "darwin" {
		return NewBrowserReader(nil, nil, logger)
	}
	return NewBrowserReader(
		[]TabSource{
			newAppleScriptSource("Google Chrome", chromeScript, runCommand),
			newAppleScriptSource("Safari", safariScript, runCommand),
		},
		frontmostApp(runCommand),
		logger,
	)
}

// ReadActiveTab never fails. An unavailable browser or a rejected query
// yields an empty context.
func (r *BrowserReader) ReadActiveTab(ctx context.Context) BrowserContext {
	for _, source := range r.ordered(ctx) {
		tab, err := r.query(ctx, source)
		if err != nil {
			r.logger.Debug("browser query failed", "browser", source.Name(), "error", err)
			continue
		}
		tab = normalizeBrowserContext(tab)
		if tab.Available() {
			r.logger.Debug("browser context found", "browser", source.Name(), "url", tab.URL)
			return tab
		}
	}
	return BrowserContext{}
}

func (r *BrowserReader) query(ctx context.Context, source TabSource) (BrowserContext, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return source.ActiveTab(ctx)
}

// ordered moves the frontmost browser to the front of the list
func (r *BrowserReader) ordered(ctx context.Context) []TabSource {
	if r.frontmost == nil || len(r.sources) < 2 {
		return r.sources
	}

	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	app, err := r.frontmost(qctx)
	if err != nil {
		r.logger.Debug("frontmost app unknown", "error", err)
		return r.sources
	}

	for i, source := range r.sources {
		if strings.Contains(app, source.AppName()) {
			ordered := make([]TabSource, 0, len(r.sources))
			ordered = append(ordered, source)
			ordered = append(ordered, r.sources[:i]...)
			return append(ordered, r.sources[i+1:]...)
		}
	}
	return r.sources
}

// normalizeBrowserContext drops URLs that are not http(s) pages and trims
// the title
func normalizeBrowserContext(tab BrowserContext) BrowserContext {
	tab.Title = singleLine(tab.Title)
	tab.URL = strings.TrimSpace(tab.URL)
	if tab.URL == "" {
		return tab
	}

	u, err := url.Parse(tab.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		tab.URL = ""
	}
	return tab
}

// Scripts check the application is running first so that querying never
// launches a browser.
const (
	chromeScript = `if application "Google Chrome" is running then
	tell application "Google Chrome"
		if (count of windows) > 0 then
			set currentTab to active tab of front window
			return (URL of currentTab) & linefeed & (title of currentTab)
		end if
	end tell
end if
return ""`

	safariScript = `if application "Safari" is running then
	tell application "Safari"
		if (count of windows) > 0 then
			set currentTab to current tab of front window
			return (URL of currentTab) & linefeed & (name of currentTab)
		end if
	end tell
end if
return ""`

	frontmostScript = `tell application "System Events" to return name of first application process whose frontmost is true`
)

// appleScriptSource runs an osascript snippet that prints "URL\nTitle"
type appleScriptSource struct {
	app    string
	script string
	run    commandRunner
}

func newAppleScriptSource(app, script string, run commandRunner) *appleScriptSource {
	return &appleScriptSource{app: app, script: script, run: run}
}

func (s *appleScriptSource) Name() string    { return strings.ToLower(s.app) }
func (s *appleScriptSource) AppName() string { return s.app }

func (s *appleScriptSource) ActiveTab(ctx context.Context) (BrowserContext, error) {
	out, err := s.run(ctx, "osascript", "-e", s.script)
	if err != nil {
		return BrowserContext{}, fmt.Errorf("querying %s: %w", s.app, err)
	}

	output := strings.TrimSpace(string(out))
	if output == "" {
		return BrowserContext{}, nil
	}
	rawURL, title, _ := strings.Cut(output, "\n")
	return BrowserContext{URL: rawURL, Title: title}, nil
}

func frontmostApp(run commandRunner) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		out, err := run(ctx, "osascript", "-e", frontmostScript)
		if err != nil {
			return "", fmt.Errorf("querying System Events: %w", err)
		}
		return strings.TrimSpace(string(out)), nil
	}
}
