// Package cli parses the scribe launcher command line.
package cli

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// NoPosition marks an unset --line or --column.
const NoPosition = -1

type Command string

const (
	CommandOpen    Command = "open"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

type Parsed struct {
	Command       Command
	ConfigPath    string
	SocketFile    string
	Files         []string
	Line          int
	Column        int
	ReadOnly      bool
	Favorite      bool
	NoProjects    bool
	ListDocuments bool
	NewInstance   bool
	// ForceRemote sends an open sequence even when Files is empty.
	ForceRemote bool
	ShowHelp    bool
}

// ErrUsage tags command-line mistakes so callers can exit with status 2.
var ErrUsage = errors.New("usage error")

func Parse(args []string) (Parsed, error) {
	fs := flag.NewFlagSet("scribe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(true)

	parsed := Parsed{Command: CommandOpen}
	fs.IntVarP(&parsed.Line, "line", "l", NoPosition, "go to line in the first opened file")
	fs.IntVar(&parsed.Column, "column", NoPosition, "go to column in the first opened file")
	fs.BoolVarP(&parsed.ReadOnly, "read-only", "r", false, "open files read-only")
	fs.BoolVar(&parsed.Favorite, "favorite", false, "mark opened files as favorites")
	fs.BoolVar(&parsed.NoProjects, "no-projects", false, "open project files as plain documents")
	fs.BoolVar(&parsed.ListDocuments, "list-documents", false, "print the documents open in the running instance")
	fs.BoolVarP(&parsed.NewInstance, "new-instance", "i", false, "skip the running instance and start standalone")
	fs.BoolVar(&parsed.ForceRemote, "no-new-instance", false, "contact the running instance even without files")
	fs.StringVar(&parsed.SocketFile, "socket-file", "", "use this socket path instead of the derived one")
	fs.StringVar(&parsed.ConfigPath, "config", "", "config file path")
	doctor := fs.Bool("doctor", false, "run configuration and environment checks")
	version := fs.BoolP("version", "V", false, "show version")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	parsed.Files = fs.Args()

	switch {
	case *help:
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
	case *version:
		parsed.Command = CommandVersion
	case *doctor:
		parsed.Command = CommandDoctor
	}

	if parsed.NewInstance && parsed.ForceRemote {
		return Parsed{}, fmt.Errorf("%w: --new-instance and --no-new-instance are mutually exclusive", ErrUsage)
	}
	if parsed.NewInstance && parsed.ListDocuments {
		return Parsed{}, fmt.Errorf("%w: --list-documents needs a running instance", ErrUsage)
	}
	if fs.Changed("line") && parsed.Line < 0 {
		return Parsed{}, fmt.Errorf("%w: --line must be >= 0", ErrUsage)
	}
	if fs.Changed("column") && parsed.Column < 0 {
		return Parsed{}, fmt.Errorf("%w: --column must be >= 0", ErrUsage)
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] [files...]

Opens files in the running %[1]s instance for this desktop session, or
becomes that instance when none is running.

Flags:
  -l, --line N          Go to line N in the first opened file
      --column N        Go to column N in the first opened file
  -r, --read-only       Open files read-only
      --favorite        Mark opened files as favorites
      --no-projects     Open project files as plain documents
      --list-documents  Print the documents open in the running instance
  -i, --new-instance    Skip the running instance and start standalone
      --no-new-instance Contact the running instance even without files
      --socket-file P   Use P instead of the derived socket path
      --config PATH     Config file path (default: $XDG_CONFIG_HOME/scribe/config.jsonc)
      --doctor          Run configuration and environment checks
  -V, --version         Show version
  -h, --help            Show help
`, binaryName)
}
