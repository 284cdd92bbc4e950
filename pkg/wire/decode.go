package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// PeekCommand reads the leading tag of a command without decoding the
// rest. A tag outside the catalog returns UnknownCmdID and no error; the
// caller decides whether that is fatal.
func PeekCommand(data []byte) (CommandID, Tag, error) {
	tag, err := readTagHead(data)
	if err != nil {
		return UnknownCmdID, 0, err
	}
	return CommandIDFromTag(tag), tag, nil
}

// readTagHead parses a CBOR tag head. The tag number may use any of the
// head widths; all are normalized to a Tag.
func readTagHead(data []byte) (Tag, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidTag)
	}
	if majorType(data[0]) != majorTag {
		return 0, fmt.Errorf("%w: leading item has major type %d", ErrInvalidTag, majorType(data[0]))
	}

	info := data[0] & 0x1f
	var size int
	switch {
	case info < 24:
		return Tag(info), nil
	case info == 24:
		size = 1
	case info == 25:
		size = 2
	case info == 26:
		size = 4
	case info == 27:
		size = 8
	default:
		return 0, fmt.Errorf("%w: reserved additional info %d", ErrInvalidTag, info)
	}
	if len(data) < 1+size {
		return 0, fmt.Errorf("%w: truncated tag head", ErrInvalidTag)
	}

	arg := data[1 : 1+size]
	switch size {
	case 1:
		return Tag(arg[0]), nil
	case 2:
		return Tag(binary.BigEndian.Uint16(arg)), nil
	case 4:
		return Tag(binary.BigEndian.Uint32(arg)), nil
	default:
		return Tag(binary.BigEndian.Uint64(arg)), nil
	}
}

// Decode parses a command from data into m. m must be the message type
// of the command on the wire; use PeekCommand or DecodeNew when the
// command is not known in advance.
//
// On error m is left unchanged and the error wraps one of the package
// sentinel errors. Decode succeeds only if data holds exactly one
// command whose fields all fit the schema.
func Decode(data []byte, m Message) error {
	if m == nil {
		return fmt.Errorf("%w: nil message", ErrCommandMismatch)
	}

	id, tag, err := PeekCommand(data)
	if err != nil {
		return err
	}
	if id == UnknownCmdID {
		return fmt.Errorf("%w: tag %s", ErrUnknownCommand, tag)
	}
	if id != m.Command() {
		return fmt.Errorf("%w: tag %s is %s, message is %s", ErrCommandMismatch, tag, id, m.Command())
	}

	var raw cbor.RawTag
	rest, err := decMode.UnmarshalFirst(data, &raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
	if len(raw.Content) == 0 || majorType(raw.Content[0]) != majorArray {
		return fmt.Errorf("%w: %s content is not an array", ErrTypeMismatch, id)
	}

	var items []cbor.RawMessage
	if err := decMode.Unmarshal(raw.Content, &items); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	fields := m.fields()
	if len(items) != len(fields) {
		return fmt.Errorf("%w: %s has %d fields, got %d", ErrArrayLengthMismatch, id, len(fields), len(items))
	}

	values := make([]any, len(fields))
	for i, f := range fields {
		v, err := f.decode(items[i])
		if err != nil {
			return fmt.Errorf("%s.%s: %w", id, f.Name, err)
		}
		values[i] = v
	}

	for i, f := range fields {
		f.set(values[i])
	}
	m.base().tag = tag
	return nil
}

// DecodeNew decodes a command of any type, allocating the message.
func DecodeNew(data []byte) (Message, error) {
	id, tag, err := PeekCommand(data)
	if err != nil {
		return nil, err
	}
	m := NewMessage(id)
	if m == nil {
		return nil, fmt.Errorf("%w: tag %s", ErrUnknownCommand, tag)
	}
	if err := Decode(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
