package wire

import (
	"fmt"
	"strings"
)

// CommandID identifies the semantic type of a command.
// Values are stable and never reused.
type CommandID uint16

const (
	// UnknownCmdID is returned for tags outside the catalog.
	UnknownCmdID CommandID = 0

	OtaBeginUpID               CommandID = 1
	OtaUpdateCmdDownID         CommandID = 2
	OtaProgressCmdUpID         CommandID = 3
	ThingGetIDCmdUpID          CommandID = 4
	ThingBeginCmdID            CommandID = 5
	LastValuesUpdateCmdID      CommandID = 6
	ThingGetLastValueCmdDownID CommandID = 7
	DeviceBeginCmdID           CommandID = 8
	TimezoneCommandUpID        CommandID = 9
	TimezoneCommandDownID      CommandID = 10
)

// Tag is the CBOR tag number that prefixes a command on the wire.
type Tag uint64

// Command tags. The upper bits select the command family.
const (
	TagOtaBeginUp               Tag = 0x10000
	TagOtaUpdateCmdDown         Tag = 0x10100
	TagOtaProgressCmdUp         Tag = 0x10200
	TagThingGetIDCmdUp          Tag = 0x10300
	TagThingBeginCmd            Tag = 0x10400
	TagLastValuesUpdateCmd      Tag = 0x10500
	TagThingGetLastValueCmdDown Tag = 0x10600
	TagDeviceBeginCmd           Tag = 0x10700
	TagTimezoneCommandUp        Tag = 0x10800
	TagTimezoneCommandDown      Tag = 0x10900
)

// Reserved invalid tags, one per CBOR tag head width.
// See https://www.iana.org/assignments/cbor-tags/cbor-tags.xhtml
const (
	TagUnknown16 Tag = 0xffff
	TagUnknown32 Tag = 0xffffffff
	TagUnknown64 Tag = 0xffffffffffffffff
	TagUnknown       = TagUnknown32
)

// Direction is the flow of a command over the cloud link.
type Direction uint8

const (
	DirectionNone Direction = iota
	// DirectionUp is device to cloud.
	DirectionUp
	// DirectionDown is cloud to device.
	DirectionDown
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "UP"
	case DirectionDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// CommandIDFromTag resolves a wire tag to its command.
// Tags outside the catalog, including the reserved invalid tags of every
// width, resolve to UnknownCmdID.
func CommandIDFromTag(tag Tag) CommandID {
	switch tag {
	case TagOtaBeginUp:
		return OtaBeginUpID
	case TagOtaUpdateCmdDown:
		return OtaUpdateCmdDownID
	case TagOtaProgressCmdUp:
		return OtaProgressCmdUpID
	case TagThingGetIDCmdUp:
		return ThingGetIDCmdUpID
	case TagThingBeginCmd:
		return ThingBeginCmdID
	case TagLastValuesUpdateCmd:
		return LastValuesUpdateCmdID
	case TagThingGetLastValueCmdDown:
		return ThingGetLastValueCmdDownID
	case TagDeviceBeginCmd:
		return DeviceBeginCmdID
	case TagTimezoneCommandUp:
		return TimezoneCommandUpID
	case TagTimezoneCommandDown:
		return TimezoneCommandDownID
	default:
		return UnknownCmdID
	}
}

// TagFor returns the wire tag of a command, or TagUnknown.
func TagFor(id CommandID) Tag {
	switch id {
	case OtaBeginUpID:
		return TagOtaBeginUp
	case OtaUpdateCmdDownID:
		return TagOtaUpdateCmdDown
	case OtaProgressCmdUpID:
		return TagOtaProgressCmdUp
	case ThingGetIDCmdUpID:
		return TagThingGetIDCmdUp
	case ThingBeginCmdID:
		return TagThingBeginCmd
	case LastValuesUpdateCmdID:
		return TagLastValuesUpdateCmd
	case ThingGetLastValueCmdDownID:
		return TagThingGetLastValueCmdDown
	case DeviceBeginCmdID:
		return TagDeviceBeginCmd
	case TimezoneCommandUpID:
		return TagTimezoneCommandUp
	case TimezoneCommandDownID:
		return TagTimezoneCommandDown
	default:
		return TagUnknown
	}
}

// Commands returns every valid command in tag order.
func Commands() []CommandID {
	return []CommandID{
		OtaBeginUpID,
		OtaUpdateCmdDownID,
		OtaProgressCmdUpID,
		ThingGetIDCmdUpID,
		ThingBeginCmdID,
		LastValuesUpdateCmdID,
		ThingGetLastValueCmdDownID,
		DeviceBeginCmdID,
		TimezoneCommandUpID,
		TimezoneCommandDownID,
	}
}

// IsValid returns true if the command is part of the catalog.
func (c CommandID) IsValid() bool {
	return c >= OtaBeginUpID && c <= TimezoneCommandDownID
}

// String returns the command name.
func (c CommandID) String() string {
	switch c {
	case OtaBeginUpID:
		return "OtaBeginUp"
	case OtaUpdateCmdDownID:
		return "OtaUpdateCmdDown"
	case OtaProgressCmdUpID:
		return "OtaProgressCmdUp"
	case ThingGetIDCmdUpID:
		return "ThingGetIdCmdUp"
	case ThingBeginCmdID:
		return "ThingBeginCmd"
	case LastValuesUpdateCmdID:
		return "LastValuesUpdateCmd"
	case ThingGetLastValueCmdDownID:
		return "ThingGetLastValueCmdDown"
	case DeviceBeginCmdID:
		return "DeviceBeginCmd"
	case TimezoneCommandUpID:
		return "TimezoneCommandUp"
	case TimezoneCommandDownID:
		return "TimezoneCommandDown"
	default:
		return "Unknown"
	}
}

// Direction returns which way the command travels.
func (c CommandID) Direction() Direction {
	switch c {
	case OtaBeginUpID, OtaProgressCmdUpID, ThingGetIDCmdUpID,
		LastValuesUpdateCmdID, DeviceBeginCmdID, TimezoneCommandUpID:
		return DirectionUp
	case OtaUpdateCmdDownID, ThingBeginCmdID, ThingGetLastValueCmdDownID,
		TimezoneCommandDownID:
		return DirectionDown
	default:
		return DirectionNone
	}
}

// ParseCommandID looks up a command by name (case-insensitive).
// The "Id"/"ID" suffix is optional.
func ParseCommandID(name string) (CommandID, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, "id")
	for _, id := range Commands() {
		if strings.ToLower(id.String()) == key {
			return id, nil
		}
	}
	return UnknownCmdID, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// String returns the tag in hex.
func (t Tag) String() string {
	return fmt.Sprintf("0x%X", uint64(t))
}

// HeadSize returns the number of bytes the tag head occupies when encoded
// in its shortest form.
func (t Tag) HeadSize() int {
	switch {
	case t < 24:
		return 1
	case t <= 0xff:
		return 2
	case t <= 0xffff:
		return 3
	case t <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
