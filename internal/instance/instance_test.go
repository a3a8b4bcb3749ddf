package instance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/require"

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

func acceptAndRead(listener *transport.Listener) <-chan []byte {
	got := make(chan []byte, 4)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				close(got)
				return
			}
			payload, _ := io.ReadAll(conn)
			_ = conn.Close()
			got <- payload
		}
	}()
	return got
}

func TestResolvePrimaryThenSecondary(t *testing.T) {
	path := filepath.Join(shortTempDir(t), "scribe_socket_h__0")
	tmpDir := shortTempDir(t)

	first := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	res, err := Resolve(context.Background(), first, func(context.Context, *transport.Conn) error {
		t.Fatal("primary must not forward")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, RolePrimary, res.Role)
	require.NotNil(t, res.Listener)
	received := acceptAndRead(res.Listener)

	second := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	res2, err := Resolve(context.Background(), second, func(_ context.Context, conn *transport.Conn) error {
		_, writeErr := conn.Write([]byte("hello"))
		return writeErr
	})
	require.NoError(t, err)
	require.Equal(t, RoleSecondary, res2.Role)
	require.Nil(t, res2.Listener)
	require.NoError(t, res2.ForwardErr)
	require.Equal(t, []byte("hello"), <-received)

	require.NoError(t, res.Listener.Close())
	require.NoError(t, first.Close())
}

func TestResolveSecondaryReportsForwardError(t *testing.T) {
	path := filepath.Join(shortTempDir(t), "scribe_socket_h__0")
	tmpDir := shortTempDir(t)

	first := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	res, err := Resolve(context.Background(), first, nil)
	require.NoError(t, err)
	defer first.Close()
	defer res.Listener.Close()
	acceptAndRead(res.Listener)

	boom := errors.New("boom")
	second := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	res2, err := Resolve(context.Background(), second, func(context.Context, *transport.Conn) error { return boom })
	require.NoError(t, err)
	require.Equal(t, RoleSecondary, res2.Role)
	require.ErrorIs(t, res2.ForwardErr, boom)
}

func TestResolveRecoversStaleArtifact(t *testing.T) {
	cfgDir := shortTempDir(t)
	tmpDir := shortTempDir(t)
	path := filepath.Join(cfgDir, "scribe_socket_h__0")
	dead := filepath.Join(tmpDir, "scribe_socket.0badf00d")

	// a primary that died without cleaning up leaves a refusing socket file
	old, err := net.ListenUnix("unix", &net.UnixAddr{Name: dead, Net: "unix"})
	require.NoError(t, err)
	old.SetUnlinkOnClose(false)
	require.NoError(t, old.Close())
	require.NoError(t, os.Symlink(dead, path))

	ep := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	res, err := Resolve(context.Background(), ep, nil)
	require.NoError(t, err)
	require.Equal(t, RolePrimary, res.Role)
	defer ep.Close()
	defer res.Listener.Close()

	target, err := os.Readlink(path)
	require.NoError(t, err)
	require.NotEqual(t, dead, target)
	_, err = os.Lstat(dead)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestResolveForeignOwnerStopsBeforeConnect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("numeric owners are unix-only")
	}
	path := filepath.Join(shortTempDir(t), "scribe_socket_h__0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ep := endpoint.NewSocket(path, shortTempDir(t), "scribe", transport.DefaultOptions(), nil)
	ep.UID = endpoint.CurrentUID() + 1

	_, err := Resolve(context.Background(), ep, nil)
	require.ErrorIs(t, err, endpoint.ErrForeignOwner)

	// the artifact is left alone and nothing was bound
	st, err := os.Lstat(path)
	require.NoError(t, err)
	require.True(t, st.Mode().IsRegular())
	require.Empty(t, ep.RealPath())
}

type recordingEndpoint struct {
	endpoint.Endpoint
	calls []string
}

func (r *recordingEndpoint) Prepare() error {
	r.calls = append(r.calls, "prepare")
	return r.Endpoint.Prepare()
}

func (r *recordingEndpoint) Connect(ctx context.Context) (*transport.Conn, error) {
	r.calls = append(r.calls, "connect")
	return r.Endpoint.Connect(ctx)
}

func (r *recordingEndpoint) Listen() (*transport.Listener, error) {
	r.calls = append(r.calls, "listen")
	return r.Endpoint.Listen()
}

func TestResolveOrderOfOperations(t *testing.T) {
	path := filepath.Join(shortTempDir(t), "scribe_socket_h__0")
	inner := endpoint.NewSocket(path, shortTempDir(t), "scribe", transport.DefaultOptions(), nil)
	ep := &recordingEndpoint{Endpoint: inner}

	res, err := Resolve(context.Background(), ep, nil)
	require.NoError(t, err)
	defer inner.Close()
	defer res.Listener.Close()
	require.Equal(t, []string{"prepare", "connect", "listen"}, ep.calls)
}

// staleViewEndpoint reports no primary, as a launch whose connect ran just
// before a concurrent launch published its socket would see.
type staleViewEndpoint struct {
	endpoint.Endpoint
}

func (s staleViewEndpoint) Connect(context.Context) (*transport.Conn, error) {
	return nil, fmt.Errorf("%w: raced", transport.ErrUnreachable)
}

func TestResolveConcurrentLaunchesElectOnePrimary(t *testing.T) {
	path := filepath.Join(shortTempDir(t), "scribe_socket_h__0")
	tmpDir := shortTempDir(t)

	first := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	res, err := Resolve(context.Background(), staleViewEndpoint{first}, nil)
	require.NoError(t, err)
	require.Equal(t, RolePrimary, res.Role)
	defer first.Close()
	defer res.Listener.Close()

	second := endpoint.NewSocket(path, tmpDir, "scribe", transport.DefaultOptions(), nil)
	_, err = Resolve(context.Background(), staleViewEndpoint{second}, nil)
	require.ErrorIs(t, err, endpoint.ErrInUse)
	require.NoError(t, second.Close())

	target, err := os.Readlink(path)
	require.NoError(t, err)
	require.Equal(t, first.RealPath(), target)
	_, err = os.Stat(first.RealPath())
	require.NoError(t, err)
}

func TestResolveBindFailureIsHardError(t *testing.T) {
	cfgDir := shortTempDir(t)
	path := filepath.Join(cfgDir, "scribe_socket_h__0")
	// a non-empty directory at the artifact path cannot be removed or bound
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o700))

	ep := endpoint.NewSocket(path, shortTempDir(t), "scribe", transport.DefaultOptions(), nil)
	_, err := Resolve(context.Background(), ep, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestResolveLoopbackVariant(t *testing.T) {
	lockDir := shortTempDir(t)
	port := freePort(t)

	first, err := endpoint.NewLoopback(port, lockDir, "scribe-test", transport.DefaultOptions(), nil)
	require.NoError(t, err)
	res, err := Resolve(context.Background(), first, nil)
	require.NoError(t, err)
	require.Equal(t, RolePrimary, res.Role)
	received := acceptAndRead(res.Listener)

	second, err := endpoint.NewLoopback(port, lockDir, "scribe-test", transport.DefaultOptions(), nil)
	require.NoError(t, err)
	res2, err := Resolve(context.Background(), second, func(_ context.Context, conn *transport.Conn) error {
		_, writeErr := conn.Write([]byte("tcp"))
		return writeErr
	})
	require.NoError(t, err)
	require.Equal(t, RoleSecondary, res2.Role)
	require.Equal(t, []byte("tcp"), <-received)

	require.NoError(t, second.Close())
	require.NoError(t, res.Listener.Close())
	require.NoError(t, first.Close())
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	l, err := transport.Listen(addr, transport.DefaultOptions())
	require.NoError(t, err)
	defer l.Close()
	port, err := l.Addr().ValueForProtocol(ma.P_TCP)
	require.NoError(t, err)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return n
}
