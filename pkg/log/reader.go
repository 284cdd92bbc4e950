package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Filter specifies criteria for filtering log events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// SessionID filters by exact session ID match.
	SessionID string

	// Direction filters by message direction.
	Direction *Direction

	// Layer filters by protocol layer.
	Layer *Layer

	// Category filters by event category.
	Category *Category

	// CommandID filters command events by catalog identifier. Events
	// without a decoded command never match.
	CommandID *wire.CommandID

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time

	// ThingID filters by thing ID.
	ThingID string
}

// Matches reports whether the event matches all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.SessionID != "" && event.SessionID != f.SessionID {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.CommandID != nil && (event.Command == nil || event.Command.CommandID != *f.CommandID) {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.ThingID != "" && event.ThingID != f.ThingID {
		return false
	}
	return true
}

// Reader reads protocol log events from a CBOR-encoded file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	release func()
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader that reads all events from the specified log file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
// Compressed files are recognized by extension.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, release, err := newDecompressReader(f, CompressionForPath(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{
		file:    f,
		release: release,
		decoder: newItemDecoder(stream),
		filter:  filter,
	}, nil
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available.
//
// A well-formed item that is not an event yields an error, and the
// following call continues with the next item.
func (r *Reader) Next() (Event, error) {
	for {
		var raw cbor.RawMessage
		if err := r.decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		event, err := DecodeEvent(raw)
		if err != nil {
			return Event{}, fmt.Errorf("decode event: %w", err)
		}

		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close releases the decompressor and closes the underlying file.
func (r *Reader) Close() error {
	r.release()
	return r.file.Close()
}
