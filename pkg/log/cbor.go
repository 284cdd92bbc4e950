package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// A capture file is a plain sequence of CBOR maps, one per Event, keyed by
// small integers. There is no header or trailer; a truncated file loses at
// most its last event.
var (
	logEncMode cbor.EncMode
	logDecMode cbor.DecMode
)

func init() {
	var err error

	// Command field maps are sorted so identical events encode to identical
	// bytes. Timestamps keep nanosecond precision.
	logEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("capture encoder options: %v", err))
	}

	// Captures from other writers may use indefinite lengths or repeat a
	// key. Integers stay uint64 so field maps read back as string, []byte
	// or uint64.
	logDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		IntDec:            cbor.IntDecConvertNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("capture decoder options: %v", err))
	}
}

// EncodeEvent returns the capture encoding of event.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent parses a single capture item.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// newItemDecoder splits a capture stream into raw items. Each item is
// well-formed CBOR but not yet checked against the Event shape.
func newItemDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}
