//go:build unix

package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/scribe/internal/config"
	"github.com/rbright/scribe/internal/endpoint"
	"github.com/rbright/scribe/internal/transport"
)

func shortTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "scr")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "present_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckArtifactStates(t *testing.T) {
	dir := shortTempDir(t)
	path := filepath.Join(dir, "scribe_socket_host_0")

	check := checkArtifact(path, endpoint.CurrentUID())
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "absent")

	require.NoError(t, os.Symlink(filepath.Join(dir, "scribe_socket.0000beef"), path))
	check = checkArtifact(path, endpoint.CurrentUID())
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "-> "+filepath.Join(dir, "scribe_socket.0000beef"))
	require.Contains(t, check.Message, "owner uid")

	check = checkArtifact(path, endpoint.CurrentUID()+1)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "owned by")
}

func TestCheckReachable(t *testing.T) {
	dir := shortTempDir(t)
	path := filepath.Join(dir, "scribe_socket_host_0")
	opts := transport.DefaultOptions()
	socket := endpoint.NewSocket(path, dir, "scribe", opts, nil)

	check := checkReachable(context.Background(), socket, opts)
	require.True(t, check.Pass)
	require.Equal(t, "no running instance", check.Message)

	listener, err := socket.Listen()
	require.NoError(t, err)
	t.Cleanup(func() { _ = socket.Close() })
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	check = checkReachable(context.Background(), socket, opts)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "running instance answers")
}

func TestRunReportsSocketEndpoint(t *testing.T) {
	dir := shortTempDir(t)
	cfg := config.Default()
	cfg.Indicator.Enable = false
	opts := transport.DefaultOptions()
	id := endpoint.Identity{Host: "box", Display: ":1"}
	socket := endpoint.NewSocket(endpoint.ArtifactPath(dir, "scribe", id), dir, "scribe", opts, nil)

	report := Run(context.Background(), Input{
		Config:    config.Loaded{Path: filepath.Join(dir, "config.jsonc"), Config: cfg},
		Identity:  id,
		Endpoint:  socket,
		Transport: opts,
	})

	require.True(t, report.OK(), report.String())
	text := report.String()
	require.Contains(t, text, "[OK] config: using defaults")
	require.Contains(t, text, `host="box" display="_1"`)
	require.Contains(t, text, "[OK] endpoint: unix /unix")
	require.Contains(t, text, "[OK] artifact:")
	require.Contains(t, text, "[OK] tmp_dir:")
	require.Contains(t, text, "[OK] primary: no running instance")
}

func TestRunWithoutEndpointFails(t *testing.T) {
	report := Run(context.Background(), Input{Config: config.Loaded{Config: config.Default(), Exists: true, Path: "/x"}})
	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] endpoint")
}

func TestRunChecksPresentCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Indicator.Enable = false
	cfg.PresentCmd = config.CommandConfig{Raw: "definitely-not-a-real-binary", Argv: []string{"definitely-not-a-real-binary"}}
	dir := shortTempDir(t)
	socket := endpoint.NewSocket(filepath.Join(dir, "s"), dir, "scribe", transport.DefaultOptions(), nil)

	report := Run(context.Background(), Input{Config: config.Loaded{Config: cfg}, Endpoint: socket})
	require.False(t, report.OK())
	require.Contains(t, report.String(), "binary not found in PATH: definitely-not-a-real-binary")
}
