package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func shortTempDir(t *testing.T) string {
	t.Helper()
	// unix socket paths are limited to ~104-108 bytes.
	dir, err := os.MkdirTemp("", "scr")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestUnixAddrRoundTrip(t *testing.T) {
	dir := shortTempDir(t)
	socketPath := filepath.Join(dir, "s.sock")

	addr, err := UnixAddr(socketPath)
	require.NoError(t, err)

	got, ok := SocketPath(addr)
	require.True(t, ok)
	require.Equal(t, socketPath, got)
}

func TestLoopbackAddrRejectsInvalidPort(t *testing.T) {
	_, err := LoopbackAddr(0)
	require.Error(t, err)

	addr, err := LoopbackAddr(DefaultPort)
	require.NoError(t, err)
	require.Equal(t, "/ip4/127.0.0.1/tcp/49876", addr.String())

	_, ok := SocketPath(addr)
	require.False(t, ok)
}

func TestDialMissingSocketIsUnreachable(t *testing.T) {
	addr, err := UnixAddr(filepath.Join(shortTempDir(t), "missing.sock"))
	require.NoError(t, err)

	_, err = Dial(context.Background(), addr, DefaultOptions())
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestDialNonSocketFileIsUnreachable(t *testing.T) {
	path := filepath.Join(shortTempDir(t), "plain")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))
	addr, err := UnixAddr(path)
	require.NoError(t, err)

	_, err = Dial(context.Background(), addr, DefaultOptions())
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestListenDialRoundTrip(t *testing.T) {
	addr, err := UnixAddr(filepath.Join(shortTempDir(t), "s.sock"))
	require.NoError(t, err)

	listener, err := Listen(addr, DefaultOptions())
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan []byte, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			accepted <- nil
			return
		}
		defer conn.Close()
		payload, _ := io.ReadAll(conn)
		accepted <- payload
	}()

	conn, err := Dial(context.Background(), listener.Addr(), DefaultOptions())
	require.NoError(t, err)
	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Equal(t, []byte("hello"), <-accepted)
}

func TestReadTimeoutIsDistinct(t *testing.T) {
	addr, err := UnixAddr(filepath.Join(shortTempDir(t), "s.sock"))
	require.NoError(t, err)

	opts := Options{IOTimeout: 50 * time.Millisecond, DialTimeout: time.Second}
	listener, err := Listen(addr, opts)
	require.NoError(t, err)
	defer listener.Close()

	release := make(chan struct{})
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		<-release
	}()
	defer close(release)

	conn, err := Dial(context.Background(), listener.Addr(), opts)
	require.NoError(t, err)
	defer conn.Close()

	start := time.Now()
	_, err = conn.Read(make([]byte, 1))
	require.Error(t, err)
	require.True(t, IsTimeout(err))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestReadEOFIsNotTimeout(t *testing.T) {
	addr, err := UnixAddr(filepath.Join(shortTempDir(t), "s.sock"))
	require.NoError(t, err)

	listener, err := Listen(addr, DefaultOptions())
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			_ = conn.Close()
		}
	}()

	conn, err := Dial(context.Background(), listener.Addr(), DefaultOptions())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
	require.False(t, IsTimeout(err))
}

func TestListenerCloseUnblocksAccept(t *testing.T) {
	addr, err := UnixAddr(filepath.Join(shortTempDir(t), "s.sock"))
	require.NoError(t, err)

	listener, err := Listen(addr, DefaultOptions())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, acceptErr := listener.Accept()
		done <- acceptErr
	}()

	require.NoError(t, listener.Close())
	select {
	case acceptErr := <-done:
		require.True(t, errors.Is(acceptErr, net.ErrClosed))
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after Close")
	}
}

func TestNamedLockIsExclusive(t *testing.T) {
	dir := shortTempDir(t)

	first, err := AcquireNamedLock(dir, "scribe-test")
	require.NoError(t, err)
	require.Equal(t, "scribe-test", first.Name())

	_, err = AcquireNamedLock(dir, "scribe-test")
	require.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	second, err := AcquireNamedLock(dir, "scribe-test")
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
