package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxFrameSize is the default maximum command size (64 KB).
	DefaultMaxFrameSize = 65536

	// DefaultMaxLogFrameDataSize is the default number of frame bytes kept
	// in capture events (4 KB).
	DefaultMaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrFrameTooLarge indicates the frame exceeds the maximum size.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrFrameEmpty indicates an empty frame.
	ErrFrameEmpty = errors.New("frame is empty")

	// ErrFrameTruncated indicates the stream ended inside a frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// frameLog captures frame events for one side of a session.
type frameLog struct {
	logger      log.Logger
	sessionID   string
	keepData    bool
	maxDataSize int
}

func (fl *frameLog) log(data []byte, direction log.Direction) {
	if fl == nil || fl.logger == nil {
		return
	}

	frame := &log.FrameEvent{Size: LengthPrefixSize + len(data)}
	if fl.keepData {
		frame.Data = data
		if len(data) > fl.maxDataSize {
			frame.Data = data[:fl.maxDataSize]
			frame.Truncated = true
		}
	}

	fl.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: fl.sessionID,
		Direction: direction,
		Layer:     log.LayerFrame,
		Category:  log.CategoryCommand,
		Frame:     frame,
	})
}

// FrameWriter writes length-prefixed frames to an underlying writer.
type FrameWriter struct {
	w            io.Writer
	maxFrameSize uint32
	mu           sync.Mutex
	log          *frameLog
}

// NewFrameWriter creates a frame writer with the default max size.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return NewFrameWriterWithMaxSize(w, DefaultMaxFrameSize)
}

// NewFrameWriterWithMaxSize creates a frame writer with a custom max size.
func NewFrameWriterWithMaxSize(w io.Writer, maxSize uint32) *FrameWriter {
	return &FrameWriter{
		w:            w,
		maxFrameSize: maxSize,
	}
}

// SetLogger configures frame capture for this writer. Frame bytes are
// recorded up to maxDataSize; a maxDataSize of 0 records sizes only.
// Pass a nil logger to disable capture.
func (fw *FrameWriter) SetLogger(logger log.Logger, sessionID string, maxDataSize int) {
	fw.log = &frameLog{
		logger:      logger,
		sessionID:   sessionID,
		keepData:    maxDataSize > 0,
		maxDataSize: maxDataSize,
	}
}

// WriteFrame writes a length-prefixed frame.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrFrameEmpty
	}
	if uint64(len(data)) > uint64(fw.maxFrameSize) {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(data), fw.maxFrameSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(data)))

	if _, err := fw.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := fw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	fw.log.log(data, log.DirectionOut)
	return nil
}

// FrameReader reads length-prefixed frames from an underlying reader.
// It is not safe for concurrent use.
type FrameReader struct {
	r            io.Reader
	maxFrameSize uint32
	lengthBuf    [LengthPrefixSize]byte
	log          *frameLog
}

// NewFrameReader creates a frame reader with the default max size.
func NewFrameReader(r io.Reader) *FrameReader {
	return NewFrameReaderWithMaxSize(r, DefaultMaxFrameSize)
}

// NewFrameReaderWithMaxSize creates a frame reader with a custom max size.
func NewFrameReaderWithMaxSize(r io.Reader, maxSize uint32) *FrameReader {
	return &FrameReader{
		r:            r,
		maxFrameSize: maxSize,
	}
}

// SetLogger configures frame capture for this reader.
// See FrameWriter.SetLogger.
func (fr *FrameReader) SetLogger(logger log.Logger, sessionID string, maxDataSize int) {
	fr.log = &frameLog{
		logger:      logger,
		sessionID:   sessionID,
		keepData:    maxDataSize > 0,
		maxDataSize: maxDataSize,
	}
}

// ReadFrame reads a length-prefixed frame and returns its payload.
// It returns io.EOF only on a clean end of stream between frames.
//
// An oversized length leaves the stream unsynchronized; callers should
// stop reading after ErrFrameTooLarge.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(fr.r, fr.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(fr.lengthBuf[:])
	if length == 0 {
		return nil, ErrFrameEmpty
	}
	if length > fr.maxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, fr.maxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	fr.log.log(payload, log.DirectionIn)
	return payload, nil
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
