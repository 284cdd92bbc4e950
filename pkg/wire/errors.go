package wire

import "errors"

// Codec errors. Decode and Encode wrap these with context; use errors.Is
// to branch on them, or StateOf to map a decode error to its DecoderState.
var (
	// ErrInvalidTag indicates the input does not start with a CBOR tag.
	ErrInvalidTag = errors.New("invalid command tag")

	// ErrUnknownCommand indicates a tag or command id outside the catalog.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandMismatch indicates the decoded command does not match the
	// message shell passed to Decode.
	ErrCommandMismatch = errors.New("command does not match message")

	// ErrArrayLengthMismatch indicates the field count on the wire differs
	// from the command schema.
	ErrArrayLengthMismatch = errors.New("array length mismatch")

	// ErrTypeMismatch indicates a wire item of the wrong CBOR type.
	ErrTypeMismatch = errors.New("field type mismatch")

	// ErrFieldTooLong indicates a text or byte field exceeds its capacity.
	ErrFieldTooLong = errors.New("field exceeds capacity")

	// ErrIntegerOverflow indicates an integer wider than its field.
	ErrIntegerOverflow = errors.New("integer overflow")

	// ErrMalformed indicates input that is not well-formed CBOR.
	ErrMalformed = errors.New("malformed CBOR")

	// ErrTrailingData indicates bytes following the command item.
	ErrTrailingData = errors.New("trailing data after command")

	// ErrBufferTooSmall indicates the destination buffer cannot hold the
	// encoded command.
	ErrBufferTooSmall = errors.New("buffer too small")
)
