package wire

import "errors"

// DecoderState is the outcome of a decode, one value per failure class.
type DecoderState uint8

const (
	// DecoderSuccess indicates every field decoded.
	DecoderSuccess DecoderState = 0

	// DecoderInvalidTag indicates a missing or malformed leading tag.
	DecoderInvalidTag DecoderState = 1

	// DecoderUnknownCommand indicates a tag outside the catalog.
	DecoderUnknownCommand DecoderState = 2

	// DecoderCommandMismatch indicates the shell does not fit the tag.
	DecoderCommandMismatch DecoderState = 3

	// DecoderArrayLengthMismatch indicates a wrong field count.
	DecoderArrayLengthMismatch DecoderState = 4

	// DecoderTypeMismatch indicates a wire item of the wrong type.
	DecoderTypeMismatch DecoderState = 5

	// DecoderFieldTooLong indicates a field over its capacity.
	DecoderFieldTooLong DecoderState = 6

	// DecoderIntegerOverflow indicates an integer wider than its field.
	DecoderIntegerOverflow DecoderState = 7

	// DecoderMalformed indicates input that is not well-formed CBOR.
	DecoderMalformed DecoderState = 8

	// DecoderTrailingData indicates bytes after the command item.
	DecoderTrailingData DecoderState = 9
)

// String returns the state name.
func (s DecoderState) String() string {
	switch s {
	case DecoderSuccess:
		return "SUCCESS"
	case DecoderInvalidTag:
		return "INVALID_TAG"
	case DecoderUnknownCommand:
		return "UNKNOWN_COMMAND"
	case DecoderCommandMismatch:
		return "COMMAND_MISMATCH"
	case DecoderArrayLengthMismatch:
		return "ARRAY_LENGTH_MISMATCH"
	case DecoderTypeMismatch:
		return "TYPE_MISMATCH"
	case DecoderFieldTooLong:
		return "FIELD_TOO_LONG"
	case DecoderIntegerOverflow:
		return "INTEGER_OVERFLOW"
	case DecoderMalformed:
		return "MALFORMED"
	case DecoderTrailingData:
		return "TRAILING_DATA"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the state indicates success.
func (s DecoderState) IsSuccess() bool {
	return s == DecoderSuccess
}

// StateOf maps an error returned by Decode to its state.
// A nil error maps to DecoderSuccess; errors from outside the codec map
// to DecoderMalformed.
func StateOf(err error) DecoderState {
	switch {
	case err == nil:
		return DecoderSuccess
	case errors.Is(err, ErrInvalidTag):
		return DecoderInvalidTag
	case errors.Is(err, ErrUnknownCommand):
		return DecoderUnknownCommand
	case errors.Is(err, ErrCommandMismatch):
		return DecoderCommandMismatch
	case errors.Is(err, ErrArrayLengthMismatch):
		return DecoderArrayLengthMismatch
	case errors.Is(err, ErrTypeMismatch):
		return DecoderTypeMismatch
	case errors.Is(err, ErrFieldTooLong):
		return DecoderFieldTooLong
	case errors.Is(err, ErrIntegerOverflow):
		return DecoderIntegerOverflow
	case errors.Is(err, ErrTrailingData):
		return DecoderTrailingData
	default:
		return DecoderMalformed
	}
}
