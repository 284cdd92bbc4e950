package commands

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/session"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// CommandSpec is the YAML description of one command to encode.
//
//	command: OtaUpdateCmdDown
//	fields:
//	  id: ota-1
//	  url: https://example.com/fw.bin
//	  initialSha256: "00112233"
//
// Byte fields are given in hex. Fields left out keep their zero value.
type CommandSpec struct {
	Command string         `yaml:"command"`
	Fields  map[string]any `yaml:"fields,omitempty"`
}

// Build allocates the command and assigns its fields.
func (s CommandSpec) Build() (wire.Message, error) {
	if s.Command == "" {
		return nil, errors.New("command name is required")
	}
	id, err := wire.ParseCommandID(s.Command)
	if err != nil {
		return nil, err
	}
	m := wire.NewMessage(id)

	for _, info := range wire.Schema(id) {
		raw, ok := s.Fields[info.Name]
		if !ok {
			continue
		}
		v, err := convertField(info, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", id, info.Name, err)
		}
		if err := wire.SetField(m, info.Name, v); err != nil {
			return nil, err
		}
	}
	for name := range s.Fields {
		if !hasField(id, name) {
			return nil, fmt.Errorf("%s has no field %q", id, name)
		}
	}
	return m, nil
}

func hasField(id wire.CommandID, name string) bool {
	for _, f := range wire.Schema(id) {
		if f.Name == name {
			return true
		}
	}
	return false
}

// convertField maps a YAML scalar onto the Go type SetField expects.
func convertField(info wire.FieldInfo, raw any) (any, error) {
	switch info.Kind {
	case wire.KindText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case int, uint64, float64, bool:
			return fmt.Sprint(v), nil
		case nil:
			return "", nil
		}
	case wire.KindBytes, wire.KindFixedBytes, wire.KindVarBytes:
		switch v := raw.(type) {
		case string:
			if v == "" {
				return []byte{}, nil
			}
			return ParseHex(v)
		case nil:
			return []byte{}, nil
		}
	case wire.KindUint32:
		switch raw.(type) {
		case int, uint64:
			return raw, nil
		}
	}
	return nil, fmt.Errorf("unsupported value %v (%T) for %s", raw, raw, info.Kind)
}

// ParseCommandSpecs reads one or more YAML documents.
func ParseCommandSpecs(data []byte) ([]CommandSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var specs []CommandSpec
	for {
		var spec CommandSpec
		err := dec.Decode(&spec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, errors.New("no command in input")
	}
	return specs, nil
}

// encodeSpecs encodes each YAML document in data and passes the result
// to emit.
func encodeSpecs(data []byte, emit func([]byte) error) (int, error) {
	specs, err := ParseCommandSpecs(data)
	if err != nil {
		return 0, err
	}
	for i, spec := range specs {
		m, err := spec.Build()
		if err != nil {
			return i, fmt.Errorf("document %d: %w", i+1, err)
		}
		encoded, err := wire.Marshal(m)
		if err != nil {
			return i, fmt.Errorf("document %d: %w", i+1, err)
		}
		if err := emit(encoded); err != nil {
			return i, err
		}
	}
	return len(specs), nil
}

// EncodeSpecs encodes each YAML document in data and writes one hex line
// per command.
func EncodeSpecs(data []byte, w io.Writer) error {
	_, err := encodeSpecs(data, func(encoded []byte) error {
		_, err := fmt.Fprintln(w, hex.EncodeToString(encoded))
		return err
	})
	return err
}

// WriteFramedSpecs encodes each YAML document in data and writes it to w
// as a length-prefixed frame, the stream format replay reads. It returns
// the number of frames written.
func WriteFramedSpecs(data []byte, w io.Writer) (int, error) {
	fw := session.NewFrameWriter(w)
	return encodeSpecs(data, fw.WriteFrame)
}

// RunEncode encodes the commands described in a YAML file. A path of "-"
// reads standard input. With output set, commands are written there as a
// framed stream instead of printed as hex.
func RunEncode(path, output string, w io.Writer) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read command file: %w", err)
	}

	if output == "" {
		return EncodeSpecs(data, w)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	n, err := WriteFramedSpecs(data, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d frames to %s\n", n, output)
	return nil
}
