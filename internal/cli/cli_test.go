package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToOpenWithNoFiles(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, CommandOpen, parsed.Command)
	require.Empty(t, parsed.Files)
	require.Equal(t, NoPosition, parsed.Line)
	require.Equal(t, NoPosition, parsed.Column)
	require.False(t, parsed.ShowHelp)
}

func TestParseOpenFlagsAndFiles(t *testing.T) {
	parsed, err := Parse([]string{
		"-l", "12", "a.txt", "--column=4", "-r", "--favorite", "--no-projects",
		"--socket-file", "/tmp/sock", "--config", "/tmp/scribe.jsonc", "b.txt",
	})
	require.NoError(t, err)
	require.Equal(t, CommandOpen, parsed.Command)
	require.Equal(t, []string{"a.txt", "b.txt"}, parsed.Files)
	require.Equal(t, 12, parsed.Line)
	require.Equal(t, 4, parsed.Column)
	require.True(t, parsed.ReadOnly)
	require.True(t, parsed.Favorite)
	require.True(t, parsed.NoProjects)
	require.Equal(t, "/tmp/sock", parsed.SocketFile)
	require.Equal(t, "/tmp/scribe.jsonc", parsed.ConfigPath)
}

func TestParseDoubleDashKeepsDashFilenames(t *testing.T) {
	parsed, err := Parse([]string{"-r", "--", "-notes.txt", "--help"})
	require.NoError(t, err)
	require.Equal(t, CommandOpen, parsed.Command)
	require.Equal(t, []string{"-notes.txt", "--help"}, parsed.Files)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantHelp bool
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version short flag", args: []string{"-V"}, wantCmd: CommandVersion},
		{name: "version long flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "doctor", args: []string{"--doctor", "--config", "/tmp/cfg"}, wantCmd: CommandDoctor},
		{name: "help wins over version", args: []string{"--version", "-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "missing config path", args: []string{"--config"}, wantErr: "needs an argument"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "non numeric line", args: []string{"--line", "ten"}, wantErr: "invalid argument"},
		{name: "negative line", args: []string{"--line=-3"}, wantErr: "--line must be"},
		{name: "negative column", args: []string{"--column=-1"}, wantErr: "--column must be"},
		{name: "conflicting instance modes", args: []string{"-i", "--no-new-instance"}, wantErr: "mutually exclusive"},
		{name: "list without instance", args: []string{"-i", "--list-documents"}, wantErr: "running instance"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrUsage)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
		})
	}
}

func TestParseInstanceModes(t *testing.T) {
	parsed, err := Parse([]string{"--new-instance", "a.txt"})
	require.NoError(t, err)
	require.True(t, parsed.NewInstance)

	parsed, err = Parse([]string{"--no-new-instance"})
	require.NoError(t, err)
	require.True(t, parsed.ForceRemote)

	parsed, err = Parse([]string{"--list-documents"})
	require.NoError(t, err)
	require.True(t, parsed.ListDocuments)
}

func TestHelpTextMentionsFlags(t *testing.T) {
	help := HelpText("scribe")
	require.Contains(t, help, "scribe [flags] [files...]")
	require.Contains(t, help, "--list-documents")
	require.Contains(t, help, "--socket-file")
	require.Contains(t, help, "config.jsonc")
}
