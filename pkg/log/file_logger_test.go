package log

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Direction: DirectionIn,
		Layer:     LayerFrame,
		Category:  CategoryCommand,
		Frame:     &FrameEvent{Size: 100, Data: []byte{1, 2, 3}},
	}
	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if decoded.SessionID != event.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, event.SessionID)
	}
	if decoded.Frame == nil || decoded.Frame.Size != 100 {
		t.Errorf("Frame: got %+v", decoded.Frame)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	for _, id := range []string{"s-1", "s-2"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), SessionID: id})
		logger.Close()
	}

	read := readAll(t, path, Filter{})
	if len(read) != 2 {
		t.Fatalf("expected 2 events, got %d", len(read))
	}
	if read[0].SessionID != "s-1" || read[1].SessionID != "s-2" {
		t.Errorf("got %q, %q", read[0].SessionID, read[1].SessionID)
	}
}

func TestFileLoggerCompressedTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog.zst")

	for _, id := range []string{"s-1", "s-2"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), SessionID: id})
		logger.Close()
	}

	read := readAll(t, path, Filter{})
	if len(read) != 1 || read[0].SessionID != "s-2" {
		t.Fatalf("got %+v, want only the second session", read)
	}
}

func TestFileLoggerCompresses(t *testing.T) {
	dir := t.TempDir()
	events := make([]Event, 200)
	for i := range events {
		events[i] = Event{
			Timestamp: time.Date(2026, 1, 28, 10, 0, i, 0, time.UTC),
			SessionID: "abc12345-def6-7890-abcd-ef1234567890",
			Layer:     LayerFrame,
			Frame:     &FrameEvent{Size: 64, Data: bytes.Repeat([]byte{0x42}, 60)},
		}
	}

	sizes := make(map[string]int64)
	for _, name := range []string{"plain.clog", "zstd.clog.zst", "lz4.clog.lz4"} {
		path := filepath.Join(dir, name)
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger(%s) failed: %v", name, err)
		}
		for _, e := range events {
			logger.Log(e)
		}
		if err := logger.Close(); err != nil {
			t.Fatalf("Close(%s) failed: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", name, err)
		}
		sizes[name] = info.Size()

		if got := len(readAll(t, path, Filter{})); got != len(events) {
			t.Errorf("%s: read %d events, want %d", name, got, len(events))
		}
	}

	if sizes["zstd.clog.zst"] >= sizes["plain.clog"] {
		t.Errorf("zstd file (%d) not smaller than plain (%d)", sizes["zstd.clog.zst"], sizes["plain.clog"])
	}
	if sizes["lz4.clog.lz4"] >= sizes["plain.clog"] {
		t.Errorf("lz4 file (%d) not smaller than plain (%d)", sizes["lz4.clog.lz4"], sizes["plain.clog"])
	}
}

func TestFileLoggerDropsUnencodableEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(Event{
		Timestamp: time.Now(),
		SessionID: "s-bad",
		Command:   &CommandEvent{Name: "ThingBeginCmd", Fields: map[string]any{"thing_id": make(chan int)}},
	})
	logger.Log(Event{Timestamp: time.Now(), SessionID: "s-good"})
	logger.Close()

	read := readAll(t, path, Filter{})
	if len(read) != 1 || read[0].SessionID != "s-good" {
		t.Fatalf("got %+v, want only s-good", read)
	}
}

func TestFileLoggerThreadSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog.lz4")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				logger.Log(Event{
					Timestamp: time.Now(),
					SessionID: "session-" + string(rune('A'+id)),
					Layer:     LayerFrame,
				})
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	if got := len(readAll(t, path, Filter{})); got != numGoroutines*eventsPerGoroutine {
		t.Errorf("event count: got %d, want %d", got, numGoroutines*eventsPerGoroutine)
	}
}

func TestFileLoggerClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog.zst")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(Event{Timestamp: time.Now(), SessionID: "s-1"})

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Logging after close is ignored.
	logger.Log(Event{Timestamp: time.Now(), SessionID: "s-2"})

	var _ Logger = logger
}

func TestCompressionForPath(t *testing.T) {
	tests := []struct {
		path string
		want Compression
	}{
		{"capture.clog", CompressionNone},
		{"capture.clog.zst", CompressionZstd},
		{"CAPTURE.CLOG.ZST", CompressionZstd},
		{"capture.clog.lz4", CompressionLZ4},
		{"capture", CompressionNone},
	}

	for _, tt := range tests {
		if got := CompressionForPath(tt.path); got != tt.want {
			t.Errorf("CompressionForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		got, err := ParseCompression(c.String())
		if err != nil {
			t.Fatalf("ParseCompression(%q) failed: %v", c, err)
		}
		if got != c {
			t.Errorf("ParseCompression(%q) = %s", c, got)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("expected error for gzip")
	}
	if Compression(9).String() != "unknown(9)" {
		t.Errorf("String = %q", Compression(9).String())
	}
}

func TestNewFileLoggerWithCompression(t *testing.T) {
	// Explicit compression overrides the extension.
	path := filepath.Join(t.TempDir(), "capture.bin")
	logger, err := NewFileLoggerWithCompression(path, CompressionZstd)
	if err != nil {
		t.Fatalf("NewFileLoggerWithCompression failed: %v", err)
	}
	logger.Log(Event{Timestamp: time.Now(), SessionID: "s-1"})
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	// zstd frame magic
	if !bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Errorf("file does not start with a zstd frame: %x", data[:4])
	}

	if _, err := NewFileLoggerWithCompression(path, Compression(9)); err == nil {
		t.Error("expected error for unknown compression")
	}
}
