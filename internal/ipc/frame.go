// Package ipc implements the NUL-framed command protocol exchanged between a
// secondary launch and the resident primary.
package ipc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// BufferLength is the default upper bound on a single frame, terminator included.
	BufferLength = 4096

	terminator   = 0x00
	sentinelByte = 0x04
)

// ErrFrameContainsNUL reports an attempt to frame bytes that contain the terminator.
var ErrFrameContainsNUL = errors.New("frame contains NUL byte")

var sentinelFrame = []byte{sentinelByte, terminator}

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FramePartial indicates the stream ended inside a frame.
	FramePartial FrameErrorKind = iota
	// FrameTooLong indicates no terminator arrived within the buffer bound.
	FrameTooLong
	// FrameIO indicates the underlying stream failed, including timeouts.
	FrameIO
)

func (k FrameErrorKind) String() string {
	switch k {
	case FramePartial:
		return "partial"
	case FrameTooLong:
		return "too-long"
	case FrameIO:
		return "io"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FrameError represents a frame decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// WriteFrame writes b followed by the NUL terminator and returns the number
// of bytes written, terminator included.
func WriteFrame(w io.Writer, b []byte) (int, error) {
	if bytes.IndexByte(b, terminator) >= 0 {
		return 0, ErrFrameContainsNUL
	}
	buf := make([]byte, 0, len(b)+1)
	buf = append(buf, b...)
	buf = append(buf, terminator)

	n, err := w.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write frame: %w", err)
	}
	return n, nil
}

func writeString(w io.Writer, s string) error {
	_, err := WriteFrame(w, []byte(s))
	return err
}

// WriteSentinel writes the two byte end-of-sequence marker.
func WriteSentinel(w io.Writer) error {
	if _, err := w.Write(sentinelFrame); err != nil {
		return fmt.Errorf("write sentinel: %w", err)
	}
	return nil
}

// IsSentinel reports whether a decoded frame is the end-of-sequence marker.
func IsSentinel(frame []byte) bool {
	return len(frame) == 1 && frame[0] == sentinelByte
}

// FrameReader decodes NUL-terminated frames from a stream.
//
// After any error other than io.EOF the reader position is undefined and the
// connection should be dropped.
type FrameReader struct {
	reader *bufio.Reader
	maxLen int
}

// NewFrameReader creates a reader that buffers at most maxLen bytes per frame.
// A non-positive maxLen selects BufferLength.
func NewFrameReader(r io.Reader, maxLen int) *FrameReader {
	if maxLen <= 0 {
		maxLen = BufferLength
	}
	if maxLen < 16 {
		maxLen = 16 // bufio minimum
	}
	return &FrameReader{reader: bufio.NewReaderSize(r, maxLen), maxLen: maxLen}
}

// ReadFrame returns the next frame without its terminator.
//
// Errors:
//   - io.EOF: stream ended cleanly between frames
//   - *FrameError with Kind=FramePartial: stream ended mid frame
//   - *FrameError with Kind=FrameTooLong: no terminator within maxLen bytes
//   - *FrameError with Kind=FrameIO: the underlying read failed
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	line, err := fr.reader.ReadSlice(terminator)
	switch {
	case err == nil:
		frame := make([]byte, len(line)-1)
		copy(frame, line)
		return frame, nil
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, &FrameError{
			Kind: FrameTooLong,
			Msg:  fmt.Sprintf("no frame terminator within %d bytes", fr.maxLen),
		}
	case err == io.EOF:
		if len(line) == 0 {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FramePartial,
			Msg:  fmt.Sprintf("stream ended after %d bytes of an unterminated frame", len(line)),
			Err:  io.ErrUnexpectedEOF,
		}
	default:
		return nil, &FrameError{Kind: FrameIO, Msg: "read frame", Err: err}
	}
}

// ReadRaw reads exactly n unframed bytes.
func (fr *FrameReader) ReadRaw(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(fr.reader, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, &FrameError{Kind: FramePartial, Msg: fmt.Sprintf("read %d raw bytes", n), Err: io.ErrUnexpectedEOF}
		}
		return nil, &FrameError{Kind: FrameIO, Msg: "read raw bytes", Err: err}
	}
	return buf, nil
}

// drain discards frames up to and including the next sentinel.
func (fr *FrameReader) drain() error {
	for {
		frame, err := fr.ReadFrame()
		if err != nil {
			return err
		}
		if IsSentinel(frame) {
			return nil
		}
	}
}
