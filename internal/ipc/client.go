package ipc

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Intent is the command-line request a secondary forwards to the primary.
type Intent struct {
	// Files are already resolved against the sender's working directory.
	Files         []string
	Line          int
	Column        int
	ReadOnly      bool
	Favorite      bool
	NoProjects    bool
	ListDocuments bool
	// ForceRemote sends the open command even without files.
	ForceRemote bool
}

// NewIntent returns an Intent with no goto position.
func NewIntent() Intent {
	return Intent{Line: NoPosition, Column: NoPosition}
}

// SendError reports a write failure while relaying an intent. The primary
// may have cancelled the open sequence; remaining frames are skipped.
type SendError struct {
	Op  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("socket error during %s: %v", e.Op, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Client encodes command sequences on one connection.
type Client struct {
	conn   io.ReadWriter
	reader *FrameReader
}

// NewClient wraps conn. maxFrameBytes bounds response frames.
func NewClient(conn io.ReadWriter, maxFrameBytes int) *Client {
	return &Client{conn: conn, reader: NewFrameReader(conn, maxFrameBytes)}
}

// RequestWindow asks the primary for its raw native window handle.
func (c *Client) RequestWindow() ([]byte, error) {
	if err := writeString(c.conn, string(CmdWindow)); err != nil {
		return nil, &SendError{Op: "window", Err: err}
	}
	return c.reader.ReadRaw(WindowHandleSize)
}

// SendOpen writes the position, no-projects and open sequences for intent.
// Nothing is written when there are no files and ForceRemote is unset.
func (c *Client) SendOpen(intent Intent) error {
	if len(intent.Files) == 0 && !intent.ForceRemote {
		return nil
	}

	if len(intent.Files) > 0 {
		if intent.Line >= 0 {
			if err := c.sequence(CmdLine, strconv.Itoa(intent.Line)); err != nil {
				return err
			}
		}
		if intent.Column >= 0 {
			if err := c.sequence(CmdColumn, strconv.Itoa(intent.Column)); err != nil {
				return err
			}
		}
	}

	if intent.NoProjects {
		if err := writeString(c.conn, string(CmdNoProjects)); err != nil {
			return &SendError{Op: string(CmdNoProjects), Err: err}
		}
	}

	cmd := OpenCommand(intent.ReadOnly, intent.Favorite)
	if err := writeString(c.conn, string(cmd)); err != nil {
		return &SendError{Op: string(cmd), Err: err}
	}
	var sendErr error
	for _, name := range intent.Files {
		if err := writeString(c.conn, name); err != nil {
			sendErr = &SendError{Op: fmt.Sprintf("%s %q", cmd, name), Err: err}
			break
		}
	}
	// The sentinel still goes out after a failure; a dead peer makes it fail too.
	if err := WriteSentinel(c.conn); err != nil && sendErr == nil {
		sendErr = &SendError{Op: string(cmd), Err: err}
	}
	return sendErr
}

// ListDocuments requests the primary's open documents and writes one per
// line to out.
func (c *Client) ListDocuments(out io.Writer) error {
	if err := writeString(c.conn, string(CmdDocList)); err != nil {
		return &SendError{Op: string(CmdDocList), Err: err}
	}
	for {
		frame, err := c.reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("read document list: %w", io.ErrUnexpectedEOF)
			}
			return fmt.Errorf("read document list: %w", err)
		}
		if IsSentinel(frame) {
			return nil
		}
		if _, err := fmt.Fprintln(out, string(frame)); err != nil {
			return fmt.Errorf("print document: %w", err)
		}
	}
}

func (c *Client) sequence(cmd Command, value string) error {
	if err := writeString(c.conn, string(cmd)); err != nil {
		return &SendError{Op: string(cmd), Err: err}
	}
	if err := writeString(c.conn, value); err != nil {
		return &SendError{Op: string(cmd), Err: err}
	}
	if err := WriteSentinel(c.conn); err != nil {
		return &SendError{Op: string(cmd), Err: err}
	}
	return nil
}

// Forward relays intent over conn and, when requested, prints the primary's
// document list to out.
func Forward(ctx context.Context, conn io.ReadWriter, intent Intent, maxFrameBytes int, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client := NewClient(conn, maxFrameBytes)
	if err := client.SendOpen(intent); err != nil {
		return err
	}
	if intent.ListDocuments {
		return client.ListDocuments(out)
	}
	return nil
}

// ResolveArgPath makes a command-line file argument meaningful to a primary
// running in another working directory. URIs are passed through unchanged.
func ResolveArgPath(cwd, arg string) string {
	if isURI(arg) {
		return arg
	}
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg)
	}
	return filepath.Join(cwd, arg)
}

func isURI(arg string) bool {
	scheme, _, ok := strings.Cut(arg, "://")
	if !ok || scheme == "" {
		return false
	}
	for i, r := range scheme {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
