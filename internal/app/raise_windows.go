//go:build windows

package app

import (
	"encoding/binary"
	"errors"

	"github.com/lxn/win"

	"github.com/rbright/scribe/internal/ipc"
)

// windowHandle is the primary's console window as a little-endian HWND.
func windowHandle() []byte {
	handle := make([]byte, ipc.WindowHandleSize)
	binary.LittleEndian.PutUint64(handle, uint64(win.GetConsoleWindow()))
	return handle
}

// raiseWindow brings the primary's window to the foreground before the
// open sequence starts. A zero handle is ignored.
func raiseWindow(handle []byte) error {
	if len(handle) < ipc.WindowHandleSize {
		return nil
	}
	hwnd := win.HWND(binary.LittleEndian.Uint64(handle))
	if hwnd == 0 {
		return nil
	}
	if win.IsIconic(hwnd) {
		win.ShowWindow(hwnd, win.SW_RESTORE)
	}
	if !win.SetForegroundWindow(hwnd) {
		return errors.New("SetForegroundWindow refused")
	}
	return nil
}
