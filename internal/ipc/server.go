package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/rbright/scribe/internal/fsm"
	"github.com/rbright/scribe/internal/textenc"
	"github.com/rbright/scribe/internal/transport"
)

// DefaultProjectSuffix marks filenames that load as projects.
const DefaultProjectSuffix = ".scribe"

// Handler processes one accepted connection.
type Handler interface {
	Handle(context.Context, io.ReadWriter) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, io.ReadWriter) error

func (f HandlerFunc) Handle(ctx context.Context, conn io.ReadWriter) error {
	return f(ctx, conn)
}

// Editor is the primary-side collaborator that decoded commands act on.
type Editor interface {
	OpenFile(ctx context.Context, name string, pending Pending) error
	ConfirmCloseProject(ctx context.Context) bool
	LoadProject(ctx context.Context, path string) error
	// Documents lists open document filenames in registry order.
	Documents() []string
	WindowHandle() []byte
	ShowError(ctx context.Context, msg string)
}

// Progress is the cooperative yield point of an open sequence.
type Progress interface {
	// Begin runs once before the first file of a non-empty sequence.
	Begin(ctx context.Context)
	// Step runs before each file and reports false once the user cancelled.
	Step(ctx context.Context, name string) bool
	End(ctx context.Context, cancelled bool)
}

// Dispatcher decodes command sequences from one connection at a time.
type Dispatcher struct {
	Editor        Editor
	Pending       *Pending
	Progress      Progress
	Charset       string
	ProjectSuffix string
	// Strict closes the connection on an unknown command instead of ignoring it.
	Strict        bool
	AllowWindow   bool
	MaxFrameBytes int
	Logger        *slog.Logger
}

type connState struct {
	state      fsm.State
	noProjects bool
}

func (c *connState) fire(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Handle runs the decode loop until the peer closes the stream, an IO or
// framing error occurs, or an open sequence is cancelled.
func (d *Dispatcher) Handle(ctx context.Context, conn io.ReadWriter) error {
	logger := d.logger()
	reader := NewFrameReader(conn, d.MaxFrameBytes)
	cs := &connState{state: fsm.StateAwaitCommand}

	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return cs.fire(fsm.EventEOF)
			}
			_ = cs.fire(fsm.EventFail)
			return fmt.Errorf("read command: %w", err)
		}

		cmd, ok := ParseCommand(frame)
		if ok && cmd == CmdWindow && !d.AllowWindow {
			ok = false
		}
		if !ok {
			if d.Strict {
				_ = cs.fire(fsm.EventFail)
				return fmt.Errorf("%w: %q", ErrUnknownCommand, truncate(frame))
			}
			logger.Debug("ignoring unknown command", "frame", truncate(frame))
			if err := cs.fire(fsm.EventUnknown); err != nil {
				return err
			}
			continue
		}

		if err := cs.fire(eventFor(cmd)); err != nil {
			return err
		}
		logger.Debug("command", "name", string(cmd), "state", string(cs.state))

		var stepErr error
		switch cs.state {
		case fsm.StateOpenSequence:
			var cancelled bool
			cancelled, stepErr = d.openSequence(ctx, reader, cmd, cs.noProjects)
			if stepErr == nil && cancelled {
				_ = cs.fire(fsm.EventCancel)
				logger.Info("open sequence cancelled")
				return nil
			}
		case fsm.StateLineValue:
			stepErr = d.position(reader, "line", &d.pending().GotoLine)
		case fsm.StateColumnValue:
			stepErr = d.position(reader, "column", &d.pending().GotoColumn)
		case fsm.StateNoProjects:
			cs.noProjects = true
		case fsm.StateDocList:
			stepErr = d.docList(conn)
		case fsm.StateWindowQuery:
			stepErr = d.windowHandle(conn)
		}
		if stepErr != nil {
			_ = cs.fire(fsm.EventFail)
			return fmt.Errorf("%s: %w", cmd, stepErr)
		}
		if err := cs.fire(fsm.EventDone); err != nil {
			return err
		}
	}
}

// openSequence consumes filename frames up to the sentinel.
func (d *Dispatcher) openSequence(ctx context.Context, reader *FrameReader, cmd Command, noProjects bool) (bool, error) {
	pending := d.pending()
	pending.ReadOnly, pending.Favorite = cmd.openFlags()
	pending.NoProjects = noProjects

	frame, err := reader.ReadFrame()
	if err != nil {
		return false, err
	}
	if IsSentinel(frame) {
		return false, nil
	}

	progress := d.Progress
	if progress != nil {
		progress.Begin(ctx)
	}
	for {
		name := textenc.ToUTF8(frame, d.Charset)

		if progress != nil && !progress.Step(ctx, name) {
			progress.End(ctx, true)
			if err := reader.drain(); err != nil && err != io.EOF {
				return true, err
			}
			return true, nil
		}
		d.openOne(ctx, name, *pending)

		frame, err = reader.ReadFrame()
		if err != nil {
			if progress != nil {
				progress.End(ctx, false)
			}
			return false, err
		}
		if IsSentinel(frame) {
			break
		}
	}
	if progress != nil {
		progress.End(ctx, false)
	}
	return false, nil
}

// OpenLocal opens names given to the primary's own command line through the
// same path as a remote sequence. It reports whether the user cancelled.
func (d *Dispatcher) OpenLocal(ctx context.Context, names []string) bool {
	if len(names) == 0 {
		return false
	}
	pending := d.pending()
	if d.Progress != nil {
		d.Progress.Begin(ctx)
	}
	for _, name := range names {
		if d.Progress != nil && !d.Progress.Step(ctx, name) {
			d.Progress.End(ctx, true)
			return true
		}
		d.openOne(ctx, name, *pending)
	}
	if d.Progress != nil {
		d.Progress.End(ctx, false)
	}
	return false
}

func (d *Dispatcher) openOne(ctx context.Context, name string, pending Pending) {
	logger := d.logger()
	if d.Editor == nil {
		logger.Warn("no editor attached; dropping file", "name", name)
		return
	}

	if !pending.NoProjects && strings.HasSuffix(name, d.projectSuffix()) {
		if d.Editor.ConfirmCloseProject(ctx) {
			if err := d.Editor.LoadProject(ctx, name); err != nil {
				logger.Error("load project failed", "path", name, "error", err.Error())
				d.Editor.ShowError(ctx, err.Error())
			}
		}
		return
	}

	if err := d.Editor.OpenFile(ctx, name, pending); err != nil {
		logger.Error("open file failed", "name", name, "error", err.Error())
		d.Editor.ShowError(ctx, err.Error())
	}
}

func (d *Dispatcher) position(reader *FrameReader, what string, dst *int) error {
	frame, err := reader.ReadFrame()
	if err != nil {
		return err
	}
	if IsSentinel(frame) {
		return nil
	}
	if value, parseErr := parsePosition(frame); parseErr != nil {
		d.logger().Warn("ignoring invalid "+what, "value", truncate(frame))
	} else {
		*dst = value
	}
	return reader.drain()
}

func (d *Dispatcher) docList(w io.Writer) error {
	if d.Editor != nil {
		for _, name := range d.Editor.Documents() {
			if name == "" {
				continue
			}
			if err := writeString(w, name); err != nil {
				return err
			}
		}
	}
	return WriteSentinel(w)
}

func (d *Dispatcher) windowHandle(w io.Writer) error {
	handle := make([]byte, WindowHandleSize)
	if d.Editor != nil {
		copy(handle, d.Editor.WindowHandle())
	}
	if _, err := w.Write(handle); err != nil {
		return fmt.Errorf("write window handle: %w", err)
	}
	return nil
}

func (d *Dispatcher) pending() *Pending {
	if d.Pending == nil {
		d.Pending = NewPending()
	}
	return d.Pending
}

func (d *Dispatcher) projectSuffix() string {
	if d.ProjectSuffix == "" {
		return DefaultProjectSuffix
	}
	return d.ProjectSuffix
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func eventFor(cmd Command) fsm.Event {
	switch {
	case cmd.isOpen():
		return fsm.EventOpen
	case cmd == CmdLine:
		return fsm.EventLine
	case cmd == CmdColumn:
		return fsm.EventColumn
	case cmd == CmdNoProjects:
		return fsm.EventNoProjects
	case cmd == CmdDocList:
		return fsm.EventDocList
	case cmd == CmdWindow:
		return fsm.EventWindow
	default:
		return fsm.EventUnknown
	}
}

func truncate(frame []byte) string {
	const limit = 64
	if len(frame) > limit {
		return string(frame[:limit]) + "..."
	}
	return string(frame)
}

// Serve accepts connections until context cancellation or listener close.
// Connections are handled one at a time on the calling goroutine; a failed
// connection is logged and dropped without stopping the loop.
func Serve(ctx context.Context, listener *transport.Listener, handler Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = listener.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept connection: %w", err)
		}
		serveConn(ctx, conn, handler, logger)
	}
}

func serveConn(ctx context.Context, conn *transport.Conn, handler Handler, logger *slog.Logger) {
	stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stopClose()
		_ = conn.Close()
	}()

	if err := handler.Handle(ctx, conn); err != nil {
		if transport.IsTimeout(err) {
			logger.Warn("connection timed out", "error", err.Error())
			return
		}
		logger.Warn("connection dropped", "error", err.Error())
	}
}
