package browser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrClosed is returned by Acquire after Close has been called.
var ErrClosed = errors.New("browser handle closed")

// Handle owns a single lazily-launched headless browser shared by
// scraper providers. Callers must pair every successful Acquire with a
// Release; the underlying browser is launched on first acquire and torn
// down by Close once the last reference is released. Launch and teardown
// are single-writer: only one goroutine ever transitions the browser
// between states.
type Handle struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	refs     int
	closed   bool
}

// NewHandle creates an unlaunched browser handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Acquire returns the shared browser, launching it on first use.
func (h *Handle) Acquire() (*rod.Browser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	if h.browser == nil {
		l := launcher.New().Headless(true).Logger(io.Discard)
		if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
			l = l.Bin(bin)
		}

		controlURL, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}

		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			l.Kill()
			return nil, fmt.Errorf("connect browser: %w", err)
		}

		h.launcher = l
		h.browser = b
	}

	h.refs++
	return h.browser, nil
}

// Release drops one reference. If Close was requested and this was the
// last reference, the browser is torn down now.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refs > 0 {
		h.refs--
	}
	if h.closed && h.refs == 0 {
		h.teardownLocked()
	}
}

// Close marks the handle closed. Teardown happens immediately when no
// references are held, otherwise when the last holder releases.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.refs == 0 {
		h.teardownLocked()
	}
	return nil
}

// Refs reports the current reference count (for tests/monitoring).
func (h *Handle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

func (h *Handle) teardownLocked() {
	if h.browser != nil {
		_ = h.browser.Close()
		h.browser = nil
	}
	if h.launcher != nil {
		h.launcher.Kill()
		h.launcher = nil
	}
}
