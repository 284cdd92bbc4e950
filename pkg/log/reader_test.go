package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

func createTestLogFile(t *testing.T, name string, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close test log: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string, filter Filter) []Event {
	t.Helper()
	reader, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}
	return read
}

func commandEvent(session string, dir Direction, m wire.Message) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: session,
		Direction: dir,
		Layer:     LayerCommand,
		Category:  CategoryCommand,
		Command:   NewCommandEvent(m),
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	for _, name := range []string{"test.clog", "test.clog.zst", "test.clog.lz4"} {
		t.Run(name, func(t *testing.T) {
			events := []Event{
				{Timestamp: time.Now(), SessionID: "s-1", Direction: DirectionIn, Layer: LayerFrame, Category: CategoryCommand},
				{Timestamp: time.Now(), SessionID: "s-2", Direction: DirectionOut, Layer: LayerCommand, Category: CategoryCommand},
				{Timestamp: time.Now(), SessionID: "s-3", Direction: DirectionIn, Layer: LayerCommand, Category: CategoryError},
			}
			path := createTestLogFile(t, name, events)

			read := readAll(t, path, Filter{})
			if len(read) != 3 {
				t.Fatalf("got %d events, want 3", len(read))
			}
			if read[0].SessionID != "s-1" {
				t.Errorf("first event SessionID = %q, want %q", read[0].SessionID, "s-1")
			}
			if read[2].SessionID != "s-3" {
				t.Errorf("last event SessionID = %q, want %q", read[2].SessionID, "s-3")
			}
		})
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := createTestLogFile(t, "empty.clog", nil)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got err=%v, event=%+v", err, event)
	}
}

func TestReaderStopsAtEnd(t *testing.T) {
	path := createTestLogFile(t, "test.clog", []Event{
		{Timestamp: time.Now(), SessionID: "s-1", Direction: DirectionIn, Layer: LayerFrame, Category: CategoryCommand},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after all events, got %v", err)
	}
}

func TestReaderFilterBySessionID(t *testing.T) {
	path := createTestLogFile(t, "test.clog", []Event{
		{Timestamp: time.Now(), SessionID: "s-A", Layer: LayerFrame},
		{Timestamp: time.Now(), SessionID: "s-B", Layer: LayerFrame},
		{Timestamp: time.Now(), SessionID: "s-A", Layer: LayerCommand},
	})

	read := readAll(t, path, Filter{SessionID: "s-A"})
	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	for _, e := range read {
		if e.SessionID != "s-A" {
			t.Errorf("event has SessionID=%q", e.SessionID)
		}
	}
}

func TestReaderFilterByCommand(t *testing.T) {
	path := createTestLogFile(t, "test.clog.zst", []Event{
		commandEvent("s-1", DirectionIn, &wire.TimezoneCommandDown{Offset: 1}),
		commandEvent("s-1", DirectionOut, &wire.TimezoneCommandUp{}),
		{Timestamp: time.Now(), SessionID: "s-1", Layer: LayerFrame, Frame: &FrameEvent{Size: 10}},
		commandEvent("s-1", DirectionIn, &wire.TimezoneCommandDown{Offset: 2}),
	})

	id := wire.TimezoneCommandDownID
	read := readAll(t, path, Filter{CommandID: &id})
	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	if read[1].Command.Fields["offset"] != uint64(2) {
		t.Errorf("offset = %#v", read[1].Command.Fields["offset"])
	}
}

func TestReaderFilterByTimeRange(t *testing.T) {
	baseTime := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

	path := createTestLogFile(t, "test.clog", []Event{
		{Timestamp: baseTime.Add(-1 * time.Hour), SessionID: "s-1"},
		{Timestamp: baseTime, SessionID: "s-2"},
		{Timestamp: baseTime.Add(30 * time.Minute), SessionID: "s-3"},
		{Timestamp: baseTime.Add(2 * time.Hour), SessionID: "s-4"},
	})

	start := baseTime.Add(-5 * time.Minute)
	end := baseTime.Add(1 * time.Hour)
	read := readAll(t, path, Filter{TimeStart: &start, TimeEnd: &end})

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2 (events within time range)", len(read))
	}
	if read[0].SessionID != "s-2" || read[1].SessionID != "s-3" {
		t.Errorf("got sessions %q, %q; want s-2, s-3", read[0].SessionID, read[1].SessionID)
	}
}

func TestReaderCombinedFilters(t *testing.T) {
	path := createTestLogFile(t, "test.clog.lz4", []Event{
		{Timestamp: time.Now(), SessionID: "s-A", Direction: DirectionIn, Layer: LayerFrame, Category: CategoryCommand},
		{Timestamp: time.Now(), SessionID: "s-A", Direction: DirectionOut, Layer: LayerCommand, Category: CategoryCommand},
		{Timestamp: time.Now(), SessionID: "s-B", Direction: DirectionIn, Layer: LayerCommand, Category: CategoryCommand},
		{Timestamp: time.Now(), SessionID: "s-A", Direction: DirectionIn, Layer: LayerCommand, Category: CategoryError},
		{Timestamp: time.Now(), SessionID: "s-A", Direction: DirectionIn, Layer: LayerCommand, Category: CategoryCommand, ThingID: "thing-1"},
	})

	layer := LayerCommand
	dir := DirectionIn
	cat := CategoryCommand
	read := readAll(t, path, Filter{
		SessionID: "s-A",
		Layer:     &layer,
		Direction: &dir,
		Category:  &cat,
		ThingID:   "thing-1",
	})

	if len(read) != 1 {
		t.Fatalf("got %d events, want 1", len(read))
	}
	if read[0].ThingID != "thing-1" {
		t.Error("event doesn't match all filter criteria")
	}
}

func TestFilterMatchesZeroValue(t *testing.T) {
	var f Filter
	if !f.Matches(Event{}) {
		t.Error("zero filter should match everything")
	}
	id := wire.ThingBeginCmdID
	f.CommandID = &id
	if f.Matches(Event{}) {
		t.Error("command filter should not match events without a command")
	}
}

func TestReaderSkipsPastMisshapedItem(t *testing.T) {
	good, err := EncodeEvent(Event{Timestamp: time.Now(), SessionID: "s-ok", Layer: LayerCommand})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	// A text string and a map whose session ID is an integer.
	data := []byte{0x61, 'x', 0xa1, 0x02, 0x05}
	data = append(data, good...)

	path := filepath.Join(t.TempDir(), "mixed.clog")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 2; i++ {
		if _, err := reader.Next(); err == nil || err == io.EOF {
			t.Fatalf("item %d: expected decode error, got %v", i, err)
		}
	}
	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next after bad items failed: %v", err)
	}
	if event.SessionID != "s-ok" {
		t.Errorf("SessionID = %q, want %q", event.SessionID, "s-ok")
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
