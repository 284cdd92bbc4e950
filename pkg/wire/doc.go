// Package wire implements the CBOR command codec for the device cloud link.
//
// Every command travels as a single tagged CBOR array:
//
//	tag(<command tag>) [ field0, field1, ... ]
//
// The tag identifies the command (see [TagFor] and [CommandIDFromTag]) and
// the array carries the command's fields in a fixed positional order. There
// are no keys on the wire: position is the only link between a wire item and
// a struct field, so the order returned by [Schema] is part of the protocol.
//
// # Decoding
//
// [Decode] fills a message shell chosen by the caller:
//
//	var cmd wire.TimezoneCommandDown
//	if err := wire.Decode(frame, &cmd); err != nil {
//	    // wire.StateOf(err) tells which check failed
//	}
//
// The shell records the raw tag it was decoded from ([Message.WireTag]).
// Re-encoding always uses the command identity ([Message.Command]), never
// the observed tag.
//
// # Encoding
//
// [Encode] writes into a caller buffer and reports the byte count. Output is
// deterministic: integers and string heads use the shortest CBOR form and
// indefinite lengths are never produced.
//
// The codec holds no mutable state and never logs. Callers own both
// messages and buffers.
package wire
