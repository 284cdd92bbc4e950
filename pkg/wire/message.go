package wire

// Field capacities. Text capacities include the terminating NUL of the
// device representation.
const (
	ThingIDSize    = 37 // UUID string
	SHA256Size     = 32
	OtaIDSize      = 37
	URLSize        = 256
	OtaStateSize   = 16
	LibVersionSize = 10
)

// Message is a command record. Every command type in this package
// implements it; the set is closed.
type Message interface {
	// Command returns the command identity used for encoding.
	Command() CommandID

	// WireTag returns the tag observed by the last successful Decode, or
	// zero for a message built in memory. To re-encode a decoded message
	// the codec resolves the tag from Command, not from WireTag.
	WireTag() Tag

	fields() []field
	base() *Base
}

// Base holds the state shared by all commands. It is embedded in every
// command type.
type Base struct {
	tag Tag
}

// WireTag returns the raw tag the message was decoded from.
func (b *Base) WireTag() Tag {
	return b.tag
}

func (b *Base) base() *Base {
	return b
}

// NewMessage returns an empty message for the command, or nil if the
// command is not in the catalog.
func NewMessage(id CommandID) Message {
	switch id {
	case OtaBeginUpID:
		return &OtaBeginUp{}
	case OtaUpdateCmdDownID:
		return &OtaUpdateCmdDown{}
	case OtaProgressCmdUpID:
		return &OtaProgressCmdUp{}
	case ThingGetIDCmdUpID:
		return &ThingGetIDCmdUp{}
	case ThingBeginCmdID:
		return &ThingBeginCmd{}
	case LastValuesUpdateCmdID:
		return &LastValuesUpdateCmd{}
	case ThingGetLastValueCmdDownID:
		return &ThingGetLastValueCmdDown{}
	case DeviceBeginCmdID:
		return &DeviceBeginCmd{}
	case TimezoneCommandUpID:
		return &TimezoneCommandUp{}
	case TimezoneCommandDownID:
		return &TimezoneCommandDown{}
	default:
		return nil
	}
}

// OtaBeginUp announces the SHA-256 of the running firmware.
//
// CBOR encoding:
//
//	tag(0x10000) [ sha ]   // bytes(32)
type OtaBeginUp struct {
	Base
	SHA [SHA256Size]byte
}

func (*OtaBeginUp) Command() CommandID { return OtaBeginUpID }

func (m *OtaBeginUp) fields() []field {
	return []field{
		fixedBytesField("sha", m.SHA[:]),
	}
}

// OtaUpdateCmdDown instructs the device to fetch a firmware image.
//
// CBOR encoding:
//
//	tag(0x10100) [
//	  id,             // text
//	  url,            // text
//	  initialSha256,  // bytes, at most 32
//	  finalSha256     // bytes, at most 32
//	]
type OtaUpdateCmdDown struct {
	Base
	ID            string
	URL           string
	InitialSHA256 []byte
	FinalSHA256   []byte
}

func (*OtaUpdateCmdDown) Command() CommandID { return OtaUpdateCmdDownID }

func (m *OtaUpdateCmdDown) fields() []field {
	return []field{
		textField("id", &m.ID, OtaIDSize),
		textField("url", &m.URL, URLSize),
		bytesField("initialSha256", &m.InitialSHA256, SHA256Size),
		bytesField("finalSha256", &m.FinalSHA256, SHA256Size),
	}
}

// OtaProgressCmdUp reports the progress of an update.
//
// CBOR encoding:
//
//	tag(0x10200) [ id, state, time, count ]
type OtaProgressCmdUp struct {
	Base
	Count uint32
	Time  uint32
	ID    string
	State string
}

func (*OtaProgressCmdUp) Command() CommandID { return OtaProgressCmdUpID }

// Wire order differs from declaration order.
func (m *OtaProgressCmdUp) fields() []field {
	return []field{
		textField("id", &m.ID, OtaIDSize),
		textField("state", &m.State, OtaStateSize),
		uint32Field("time", &m.Time),
		uint32Field("count", &m.Count),
	}
}

// ThingGetIDCmdUp asks the cloud for the thing bound to the device.
//
// CBOR encoding:
//
//	tag(0x10300) [ thing_id ]
type ThingGetIDCmdUp struct {
	Base
	ThingID string
}

func (*ThingGetIDCmdUp) Command() CommandID { return ThingGetIDCmdUpID }

func (m *ThingGetIDCmdUp) fields() []field {
	return []field{
		textField("thing_id", &m.ThingID, ThingIDSize),
	}
}

// ThingBeginCmd carries the thing id assigned by the cloud.
//
// CBOR encoding:
//
//	tag(0x10400) [ thing_id ]
type ThingBeginCmd struct {
	Base
	ThingID string
}

func (*ThingBeginCmd) Command() CommandID { return ThingBeginCmdID }

func (m *ThingBeginCmd) fields() []field {
	return []field{
		textField("thing_id", &m.ThingID, ThingIDSize),
	}
}

// LastValuesUpdateCmd requests the last known property values.
//
// CBOR encoding:
//
//	tag(0x10500) []
type LastValuesUpdateCmd struct {
	Base
}

func (*LastValuesUpdateCmd) Command() CommandID { return LastValuesUpdateCmdID }

func (*LastValuesUpdateCmd) fields() []field { return nil }

// ThingGetLastValueCmdDown carries the last known property values as an
// opaque CBOR blob. Decode allocates LastValues; the message owns it.
//
// CBOR encoding:
//
//	tag(0x10600) [ last_values ]   // bytes, any length
type ThingGetLastValueCmdDown struct {
	Base
	LastValues []byte
}

func (*ThingGetLastValueCmdDown) Command() CommandID { return ThingGetLastValueCmdDownID }

func (m *ThingGetLastValueCmdDown) fields() []field {
	return []field{
		varBytesField("last_values", &m.LastValues),
	}
}

// Release drops the values buffer. The message stays usable and encodes
// an empty byte string afterwards.
func (m *ThingGetLastValueCmdDown) Release() {
	m.LastValues = nil
}

// DeviceBeginCmd announces the device library version.
//
// CBOR encoding:
//
//	tag(0x10700) [ lib_version ]
type DeviceBeginCmd struct {
	Base
	LibVersion string
}

func (*DeviceBeginCmd) Command() CommandID { return DeviceBeginCmdID }

func (m *DeviceBeginCmd) fields() []field {
	return []field{
		textField("lib_version", &m.LibVersion, LibVersionSize),
	}
}

// TimezoneCommandUp requests timezone information.
//
// CBOR encoding:
//
//	tag(0x10800) []
type TimezoneCommandUp struct {
	Base
}

func (*TimezoneCommandUp) Command() CommandID { return TimezoneCommandUpID }

func (*TimezoneCommandUp) fields() []field { return nil }

// TimezoneCommandDown carries the UTC offset in seconds and the unix time
// until which it is valid.
//
// CBOR encoding:
//
//	tag(0x10900) [ offset, until ]
type TimezoneCommandDown struct {
	Base
	Offset uint32
	Until  uint32
}

func (*TimezoneCommandDown) Command() CommandID { return TimezoneCommandDownID }

func (m *TimezoneCommandDown) fields() []field {
	return []field{
		uint32Field("offset", &m.Offset),
		uint32Field("until", &m.Until),
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Message = (*OtaBeginUp)(nil)
	_ Message = (*OtaUpdateCmdDown)(nil)
	_ Message = (*OtaProgressCmdUp)(nil)
	_ Message = (*ThingGetIDCmdUp)(nil)
	_ Message = (*ThingBeginCmd)(nil)
	_ Message = (*LastValuesUpdateCmd)(nil)
	_ Message = (*ThingGetLastValueCmdDown)(nil)
	_ Message = (*DeviceBeginCmd)(nil)
	_ Message = (*TimezoneCommandUp)(nil)
	_ Message = (*TimezoneCommandDown)(nil)
)
