package wire

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// Kind is the wire type of a schema field.
type Kind uint8

const (
	// KindText is a definite-length text string with a capacity.
	KindText Kind = 1

	// KindBytes is a definite-length byte string with a capacity,
	// encoded at its current length.
	KindBytes Kind = 2

	// KindFixedBytes is a byte string of exactly Capacity bytes.
	KindFixedBytes Kind = 3

	// KindVarBytes is a byte string of any length.
	KindVarBytes Kind = 4

	// KindUint32 is an unsigned integer that fits in 32 bits.
	KindUint32 Kind = 5
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "fixed-bytes"
	case KindVarBytes:
		return "var-bytes"
	case KindUint32:
		return "uint32"
	default:
		return "unknown"
	}
}

// FieldInfo describes one positional field of a command.
type FieldInfo struct {
	Name string
	Kind Kind

	// Capacity bounds text and byte fields. For text it counts the
	// terminating NUL of the device representation, so the longest
	// accepted string is Capacity-1 bytes. Zero means unbounded.
	Capacity int
}

// String returns a compact description such as "thing_id:text(37)".
func (f FieldInfo) String() string {
	if f.Capacity > 0 {
		return fmt.Sprintf("%s:%s(%d)", f.Name, f.Kind, f.Capacity)
	}
	return fmt.Sprintf("%s:%s", f.Name, f.Kind)
}

// Schema returns the ordered fields of a command, or nil for commands
// outside the catalog. Commands without fields return an empty slice.
func Schema(id CommandID) []FieldInfo {
	m := NewMessage(id)
	if m == nil {
		return nil
	}
	fields := m.fields()
	infos := make([]FieldInfo, len(fields))
	for i, f := range fields {
		infos[i] = f.FieldInfo
	}
	return infos
}

// FieldValue is a schema field together with the value a message holds.
type FieldValue struct {
	FieldInfo
	Value any // string, []byte or uint32
}

// Values returns the fields of m in wire order with their current values.
// Byte values are copies.
func Values(m Message) []FieldValue {
	if m == nil {
		return nil
	}
	fields := m.fields()
	out := make([]FieldValue, len(fields))
	for i, f := range fields {
		var v any
		switch f.Kind {
		case KindText:
			v = *f.text
		case KindBytes, KindVarBytes:
			v = bytes.Clone(nonNil(*f.bytes))
		case KindFixedBytes:
			v = bytes.Clone(f.fixed)
		case KindUint32:
			v = *f.u32
		}
		out[i] = FieldValue{FieldInfo: f.FieldInfo, Value: v}
	}
	return out
}

// SetField assigns the named field of m. Text takes a string, byte kinds
// take a []byte and uint32 fields take any Go integer type. Values are
// bounded the same way Decode bounds them.
func SetField(m Message, name string, value any) error {
	if m == nil {
		return fmt.Errorf("%w: nil message", ErrUnknownCommand)
	}
	for _, f := range m.fields() {
		if f.Name != name {
			continue
		}
		v, err := f.check(value)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", m.Command(), name, err)
		}
		f.set(v)
		return nil
	}
	return fmt.Errorf("%s has no field %q", m.Command(), name)
}

// check converts a Go value into the form set expects.
func (f field) check(value any) (any, error) {
	switch f.Kind {
	case KindText:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrTypeMismatch, value)
		}
		if err := f.checkText(s); err != nil {
			return nil, err
		}
		return s, nil

	case KindBytes, KindFixedBytes, KindVarBytes:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: want []byte, got %T", ErrTypeMismatch, value)
		}
		if f.Kind != KindVarBytes && len(b) > f.Capacity {
			return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrFieldTooLong, len(b), f.Capacity)
		}
		return bytes.Clone(nonNil(b)), nil

	default:
		var n uint64
		switch v := value.(type) {
		case uint:
			n = uint64(v)
		case uint8:
			n = uint64(v)
		case uint16:
			n = uint64(v)
		case uint32:
			n = uint64(v)
		case uint64:
			n = v
		case int, int8, int16, int32, int64:
			i := reflectInt(v)
			if i < 0 {
				return nil, fmt.Errorf("%w: negative value %d", ErrTypeMismatch, i)
			}
			n = uint64(i)
		default:
			return nil, fmt.Errorf("%w: want integer, got %T", ErrTypeMismatch, value)
		}
		if n > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d does not fit in 32 bits", ErrIntegerOverflow, n)
		}
		return uint32(n), nil
	}
}

func reflectInt(v any) int64 {
	switch i := v.(type) {
	case int:
		return int64(i)
	case int8:
		return int64(i)
	case int16:
		return int64(i)
	case int32:
		return int64(i)
	default:
		return i.(int64)
	}
}

// field binds a FieldInfo to the struct member holding its value.
// Exactly one of the pointers is set, matching Kind.
type field struct {
	FieldInfo

	text  *string
	bytes *[]byte
	fixed []byte // view of a fixed-size array
	u32   *uint32
}

func textField(name string, p *string, capacity int) field {
	return field{FieldInfo: FieldInfo{Name: name, Kind: KindText, Capacity: capacity}, text: p}
}

func bytesField(name string, p *[]byte, capacity int) field {
	return field{FieldInfo: FieldInfo{Name: name, Kind: KindBytes, Capacity: capacity}, bytes: p}
}

func fixedBytesField(name string, p []byte) field {
	return field{FieldInfo: FieldInfo{Name: name, Kind: KindFixedBytes, Capacity: len(p)}, fixed: p}
}

func varBytesField(name string, p *[]byte) field {
	return field{FieldInfo: FieldInfo{Name: name, Kind: KindVarBytes}, bytes: p}
}

func uint32Field(name string, p *uint32) field {
	return field{FieldInfo: FieldInfo{Name: name, Kind: KindUint32}, u32: p}
}

// CBOR major types checked before decoding a field.
const (
	majorUint  byte = 0
	majorBytes byte = 2
	majorText  byte = 3
	majorArray byte = 4
	majorTag   byte = 6
)

func majorType(b byte) byte {
	return b >> 5
}

// value returns the field's current value in the form written to the wire.
func (f field) value() (any, error) {
	switch f.Kind {
	case KindText:
		if err := f.checkText(*f.text); err != nil {
			return nil, err
		}
		return *f.text, nil
	case KindBytes:
		if len(*f.bytes) > f.Capacity {
			return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrFieldTooLong, len(*f.bytes), f.Capacity)
		}
		return nonNil(*f.bytes), nil
	case KindVarBytes:
		return nonNil(*f.bytes), nil
	case KindFixedBytes:
		return f.fixed, nil
	case KindUint32:
		return *f.u32, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %d", f.Kind)
	}
}

// decode parses one wire item without touching the destination, so a
// failure later in the array leaves the message unchanged.
func (f field) decode(item cbor.RawMessage) (any, error) {
	if len(item) == 0 {
		return nil, ErrMalformed
	}
	want := majorUint
	switch f.Kind {
	case KindText:
		want = majorText
	case KindBytes, KindFixedBytes, KindVarBytes:
		want = majorBytes
	}
	if got := majorType(item[0]); got != want {
		return nil, fmt.Errorf("%w: want major type %d, got %d", ErrTypeMismatch, want, got)
	}

	switch f.Kind {
	case KindText:
		var s string
		if err := decMode.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if len(s) >= f.Capacity {
			return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrFieldTooLong, len(s), f.Capacity)
		}
		return s, nil

	case KindBytes, KindFixedBytes, KindVarBytes:
		var b []byte
		if err := decMode.Unmarshal(item, &b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if f.Kind != KindVarBytes && len(b) > f.Capacity {
			return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrFieldTooLong, len(b), f.Capacity)
		}
		return nonNil(b), nil

	default:
		var v uint64
		if err := decMode.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d does not fit in 32 bits", ErrIntegerOverflow, v)
		}
		return uint32(v), nil
	}
}

// checkText bounds a text value the way decode does: it must be valid
// UTF-8 and leave room for the terminating NUL.
func (f field) checkText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 text", ErrTypeMismatch)
	}
	if len(s) >= f.Capacity {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrFieldTooLong, len(s), f.Capacity)
	}
	return nil
}

// set stores a value produced by decode.
func (f field) set(v any) {
	switch f.Kind {
	case KindText:
		*f.text = v.(string)
	case KindBytes, KindVarBytes:
		*f.bytes = v.([]byte)
	case KindFixedBytes:
		n := copy(f.fixed, v.([]byte))
		clear(f.fixed[n:])
	case KindUint32:
		*f.u32 = v.(uint32)
	}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
