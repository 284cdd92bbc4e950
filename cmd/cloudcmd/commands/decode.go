package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// ParseHex decodes a hex string. Whitespace, colons and a leading "0x"
// are ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return data, nil
}

// RunDecode decodes one hex-encoded command and prints its fields. With
// diag set, the CBOR diagnostic notation is printed as well, even when
// the command does not decode.
func RunDecode(input string, diag bool, w io.Writer) error {
	data, err := ParseHex(input)
	if err != nil {
		return err
	}

	if diag {
		d, err := wire.Diagnose(data)
		if err != nil {
			fmt.Fprintf(w, "Diag: (%v)\n", err)
		} else {
			fmt.Fprintf(w, "Diag: %s\n", d)
		}
	}

	m, err := wire.DecodeNew(data)
	if err != nil {
		fmt.Fprintf(w, "State: %s\n", wire.StateOf(err))
		return fmt.Errorf("decode failed: %w", err)
	}
	formatMessage(w, m, len(data))
	return nil
}

// formatMessage writes a human-readable representation of a decoded command.
func formatMessage(w io.Writer, m wire.Message, size int) {
	id := m.Command()
	fmt.Fprintf(w, "%s (%s, tag %s, %d bytes)\n", id, id.Direction(), m.WireTag(), size)
	for _, v := range wire.Values(m) {
		fmt.Fprintf(w, "  %-14s %s\n", v.Name+":", formatValue(v.Value))
	}
}

// formatValue renders a field value for display.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case []byte:
		if len(x) == 0 {
			return "(empty)"
		}
		return hex.EncodeToString(x)
	default:
		return fmt.Sprint(x)
	}
}
