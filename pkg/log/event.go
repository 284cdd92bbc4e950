package log

import (
	"time"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Event represents a protocol log event captured at the frame or command layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the session that produced the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow relative to the local side.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// ThingID is the thing identifier once a ThingBeginCmd has been seen.
	ThingID string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame   *FrameEvent     `cbor:"10,keyasint,omitempty"` // Frame layer
	Command *CommandEvent   `cbor:"11,keyasint,omitempty"` // Command layer (decoded)
	Error   *ErrorEventData `cbor:"12,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming command.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing command.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerFrame is the framing layer (raw bytes).
	LayerFrame Layer = 0
	// LayerCommand is the command layer (decoded CBOR).
	LayerCommand Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerFrame:
		return "FRAME"
	case LayerCommand:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a cloud command or its frame.
	CategoryCommand Category = 0
	// CategoryError indicates an error event.
	CategoryError Category = 1
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the frame layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures a decoded cloud command.
type CommandEvent struct {
	// CommandID is the catalog identifier.
	CommandID wire.CommandID `cbor:"1,keyasint"`

	// Tag is the tag observed on the wire (or used for encoding).
	Tag wire.Tag `cbor:"2,keyasint"`

	// Name is the command name, kept so logs stay readable across
	// catalog changes.
	Name string `cbor:"3,keyasint"`

	// Fields maps schema field names to values.
	Fields map[string]any `cbor:"4,keyasint,omitempty"`

	// Size is the encoded command size in bytes.
	Size int `cbor:"5,keyasint,omitempty"`
}

// NewCommandEvent captures the current contents of m.
func NewCommandEvent(m wire.Message) *CommandEvent {
	id := m.Command()
	tag := m.WireTag()
	if tag == 0 {
		tag = wire.TagFor(id)
	}

	ev := &CommandEvent{
		CommandID: id,
		Tag:       tag,
		Name:      id.String(),
	}
	values := wire.Values(m)
	if len(values) > 0 {
		ev.Fields = make(map[string]any, len(values))
		for _, v := range values {
			ev.Fields[v.Name] = v.Value
		}
	}
	return ev
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// State is the decoder state for decode failures.
	State *wire.DecoderState `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
