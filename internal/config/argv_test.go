package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "wmctrl -x -a scribe", want: []string{"wmctrl", "-x", "-a", "scribe"}},
		{name: "double quotes", input: `xdotool search --name "scribe editor"`, want: []string{"xdotool", "search", "--name", "scribe editor"}},
		{name: "single quotes", input: `mycmd --name 'hello world'`, want: []string{"mycmd", "--name", "hello world"}},
		{name: "escaped space", input: `mycmd hello\ world`, want: []string{"mycmd", "hello world"}},
		{name: "empty quoted arg", input: `mycmd "" last`, want: []string{"mycmd", "", "last"}},
		{name: "leading comment", input: `# wmctrl -a scribe`, want: nil},
		{name: "trailing comment", input: `wmctrl -a scribe # raise`, want: []string{"wmctrl", "-a", "scribe"}},
		{name: "hash inside word", input: `notify-send issue#12`, want: []string{"notify-send", "issue#12"}},
		{name: "unterminated quote", input: `mycmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `mycmd hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExpandArgv(t *testing.T) {
	argv := []string{"raise", "--pid={pid}", "{ppid}", "{other}"}
	got := ExpandArgv(argv, map[string]string{"pid": "42", "ppid": "7"})

	require.Equal(t, []string{"raise", "--pid=42", "7", "{other}"}, got)
	require.Equal(t, "--pid={pid}", argv[1])
	require.Nil(t, ExpandArgv(nil, map[string]string{"pid": "1"}))
}
