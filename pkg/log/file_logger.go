package log

import (
	"errors"
	"io"
	"os"
	"sync"
)

// FileLogger writes protocol events to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	file   *os.File
	stream io.WriteCloser
	mu     sync.Mutex
	closed bool
}

// NewFileLogger creates a new FileLogger that writes to the specified path.
// The compression is taken from the extension (see CompressionForPath).
//
// Uncompressed files are appended to. Compressed files are truncated,
// since a compressed stream cannot be resumed. Files are created with
// permissions 0644 if they don't exist.
func NewFileLogger(path string) (*FileLogger, error) {
	return NewFileLoggerWithCompression(path, CompressionForPath(path))
}

// NewFileLoggerWithCompression creates a FileLogger with an explicit compression.
func NewFileLoggerWithCompression(path string, c Compression) (*FileLogger, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if c == CompressionNone {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}
	stream, err := newCompressWriter(f, c)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileLogger{
		file:   f,
		stream: stream,
	}, nil
}

// Log writes an event to the log file.
// This method is safe for concurrent use.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	// An event that cannot be encoded is dropped whole, so the file never
	// holds a partial item. Logging must not disrupt the session.
	data, err := EncodeEvent(event)
	if err != nil {
		return
	}
	_, _ = l.stream.Write(data)
}

// Close flushes any compressed stream and closes the log file.
// It is safe to call Close multiple times.
// After Close is called, subsequent Log calls are silently ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	return errors.Join(l.stream.Close(), l.file.Close())
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
