// Package session holds the primary's editing session: the document
// registry, the open project and the options pending from remote launches.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rbright/scribe/internal/ipc"
)

// ErrIsDirectory reports an open request for a directory.
var ErrIsDirectory = errors.New("is a directory")

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowStatus(context.Context, string)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// Presenter raises the primary's window when a remote open begins.
type Presenter interface {
	Present(context.Context) error
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowStatus(context.Context, string) {}
func (noopIndicator) ShowError(context.Context, string)  {}
func (noopIndicator) Hide(context.Context)               {}

// Options tunes session policy.
type Options struct {
	// AllowProjectSwitch answers the close-current-project confirmation.
	AllowProjectSwitch bool
	WindowHandle       []byte
}

// Controller is the headless editor behind the dispatcher. It implements
// ipc.Editor and ipc.Progress.
type Controller struct {
	logger    *slog.Logger
	indicator Indicator
	presenter Presenter
	opts      Options
	pending   *ipc.Pending

	mu      sync.RWMutex
	docs    []Document
	project string

	active    atomic.Bool
	cancelled atomic.Bool
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(logger *slog.Logger, indicator Indicator, presenter Presenter, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if indicator == nil {
		indicator = noopIndicator{}
	}
	return &Controller{
		logger:    logger,
		indicator: indicator,
		presenter: presenter,
		opts:      opts,
		pending:   ipc.NewPending(),
	}
}

// Pending returns the options shared with the active dispatcher.
func (c *Controller) Pending() *ipc.Pending {
	return c.pending
}

// OpenFile registers name as an open document. Missing files open as new
// documents; directories are rejected.
func (c *Controller) OpenFile(_ context.Context, name string, pending ipc.Pending) error {
	if !isURI(name) {
		st, err := os.Stat(name)
		switch {
		case err == nil && st.IsDir():
			return fmt.Errorf("could not open %q: %w", name, ErrIsDirectory)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("could not open %q: %w", name, err)
		}
	}

	doc := Document{
		Name:     name,
		ReadOnly: pending.ReadOnly,
		Favorite: pending.Favorite,
		Line:     pending.GotoLine,
		Column:   pending.GotoColumn,
	}

	c.mu.Lock()
	replaced := c.register(doc)
	c.mu.Unlock()

	c.logger.Info("document opened",
		"name", name,
		"read_only", doc.ReadOnly,
		"favorite", doc.Favorite,
		"line", doc.Line,
		"column", doc.Column,
		"reopened", replaced,
	)
	return nil
}

// ConfirmCloseProject reports whether an incoming project may replace the
// open one.
func (c *Controller) ConfirmCloseProject(context.Context) bool {
	c.mu.RLock()
	open := c.project
	c.mu.RUnlock()
	if open == "" {
		return true
	}
	if !c.opts.AllowProjectSwitch {
		c.logger.Info("keeping open project", "project", open)
	}
	return c.opts.AllowProjectSwitch
}

// LoadProject closes every document and makes path the open project.
func (c *Controller) LoadProject(_ context.Context, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("could not load project %q: %w", path, err)
	}
	if st.IsDir() {
		return fmt.Errorf("could not load project %q: %w", path, ErrIsDirectory)
	}

	c.mu.Lock()
	previous := c.project
	c.project = path
	c.docs = nil
	c.mu.Unlock()

	c.logger.Info("project loaded", "project", path, "previous", previous)
	return nil
}

// Project returns the open project path, if any.
func (c *Controller) Project() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.project
}

func (c *Controller) WindowHandle() []byte {
	return c.opts.WindowHandle
}

func (c *Controller) ShowError(ctx context.Context, msg string) {
	c.indicator.ShowError(ctx, msg)
}

// CancelOpen asks the running open sequence to stop before its next file.
// With no sequence running it does nothing and reports false; a cancel never
// carries over to a later sequence.
func (c *Controller) CancelOpen() bool {
	if !c.active.Load() {
		return false
	}
	c.cancelled.Store(true)
	return true
}

func (c *Controller) Begin(ctx context.Context) {
	c.cancelled.Store(false)
	c.active.Store(true)
	if c.presenter != nil {
		if err := c.presenter.Present(ctx); err != nil {
			c.logger.Debug("present window failed", "error", err.Error())
		}
	}
	c.indicator.ShowStatus(ctx, "Opening files...")
}

func (c *Controller) Step(ctx context.Context, name string) bool {
	if c.cancelled.Load() || ctx.Err() != nil {
		return false
	}
	c.indicator.ShowStatus(ctx, fmt.Sprintf("Opening '%s'...", name))
	return true
}

func (c *Controller) End(ctx context.Context, cancelled bool) {
	c.active.Store(false)
	c.cancelled.Store(false)
	if cancelled {
		c.indicator.ShowError(ctx, "Cancelled.")
		return
	}
	c.indicator.Hide(ctx)
}

func isURI(name string) bool {
	scheme, _, ok := strings.Cut(name, "://")
	return ok && scheme != "" && !strings.ContainsAny(scheme, `/\`)
}
