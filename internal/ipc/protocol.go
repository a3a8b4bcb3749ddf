package ipc

import (
	"errors"
	"strconv"
	"strings"
)

// Command is a fixed, case-sensitive command name frame.
type Command string

const (
	CmdOpen                 Command = "open"
	CmdOpenReadOnly         Command = "openro"
	CmdOpenFavorite         Command = "openfav"
	CmdOpenReadOnlyFavorite Command = "openrofav"
	CmdLine                 Command = "line"
	CmdColumn               Command = "column"
	CmdNoProjects           Command = "no-projects"
	CmdDocList              Command = "doclist"
	CmdWindow               Command = "window"
)

const (
	// NoPosition marks an unset goto line or column.
	NoPosition = -1
	// WindowHandleSize is the width of the raw window-handle reply.
	WindowHandleSize = 8
)

// ErrUnknownCommand reports an unrecognized command frame in strict mode.
var ErrUnknownCommand = errors.New("unknown command")

var knownCommands = map[Command]struct{}{
	CmdOpen: {}, CmdOpenReadOnly: {}, CmdOpenFavorite: {}, CmdOpenReadOnlyFavorite: {},
	CmdLine: {}, CmdColumn: {}, CmdNoProjects: {}, CmdDocList: {}, CmdWindow: {},
}

// OpenCommand selects the open variant for the read-only and favorite flags.
func OpenCommand(readOnly, favorite bool) Command {
	switch {
	case readOnly && favorite:
		return CmdOpenReadOnlyFavorite
	case readOnly:
		return CmdOpenReadOnly
	case favorite:
		return CmdOpenFavorite
	default:
		return CmdOpen
	}
}

// ParseCommand matches a frame against the known command names.
func ParseCommand(frame []byte) (Command, bool) {
	cmd := Command(frame)
	_, ok := knownCommands[cmd]
	return cmd, ok
}

func (c Command) isOpen() bool {
	switch c {
	case CmdOpen, CmdOpenReadOnly, CmdOpenFavorite, CmdOpenReadOnlyFavorite:
		return true
	default:
		return false
	}
}

func (c Command) openFlags() (readOnly, favorite bool) {
	return c == CmdOpenReadOnly || c == CmdOpenReadOnlyFavorite,
		c == CmdOpenFavorite || c == CmdOpenReadOnlyFavorite
}

// Pending carries decoded options into the next file open. It is mutated
// only by the active dispatcher and never rolled back.
type Pending struct {
	GotoLine   int
	GotoColumn int
	ReadOnly   bool
	Favorite   bool
	NoProjects bool
}

// NewPending returns a Pending with no goto position.
func NewPending() *Pending {
	return &Pending{GotoLine: NoPosition, GotoColumn: NoPosition}
}

func parsePosition(frame []byte) (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(frame)))
}
