package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encode writes m into buf and returns the number of bytes written.
//
// If buf is too small the error wraps ErrBufferTooSmall and nothing
// usable is written; the returned count is zero.
func Encode(m Message, buf []byte) (int, error) {
	data, err := Marshal(m)
	if err != nil {
		return 0, err
	}
	if len(data) > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, len(data), len(buf))
	}
	return copy(buf, data), nil
}

// Marshal encodes m into a newly allocated slice.
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnknownCommand)
	}

	id := m.Command()
	tag := TagFor(id)
	if tag == TagUnknown {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, id)
	}

	fields := m.fields()
	content := make([]any, len(fields))
	for i, f := range fields {
		v, err := f.value()
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", id, f.Name, err)
		}
		content[i] = v
	}

	data, err := encMode.Marshal(cbor.Tag{Number: uint64(tag), Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", id, err)
	}
	return data, nil
}

// EncodedLen returns the size of the encoding of m.
func EncodedLen(m Message) (int, error) {
	data, err := Marshal(m)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
