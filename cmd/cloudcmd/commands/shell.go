package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Shell is an interactive decode/encode loop.
type Shell struct {
	rl  *readline.Instance
	out io.Writer

	// last holds the most recently encoded or decoded command, so
	// "decode" without arguments can inspect what "encode" produced.
	last []byte
}

// NewShell creates a shell reading from the terminal.
func NewShell() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cloudcmd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, out: rl.Stdout()}, nil
}

// Run reads commands until exit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if s.Execute(line) {
			return
		}
	}
}

// Execute runs one shell line and reports whether the shell should exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		s.printHelp()

	case "tags", "t":
		if err := RunTags(s.out); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}

	case "schema", "s":
		if rest == "" {
			fmt.Fprintln(s.out, "Usage: schema <command>")
			return false
		}
		if err := RunSchema(rest, s.out); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}

	case "decode", "d":
		s.cmdDecode(rest, false)

	case "diag":
		s.cmdDecode(rest, true)

	case "encode", "e":
		s.cmdEncode(rest)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) cmdDecode(arg string, diag bool) {
	if arg == "" {
		if s.last == nil {
			fmt.Fprintln(s.out, "Usage: decode <hex>")
			return
		}
		arg = hex.EncodeToString(s.last)
	}
	if err := RunDecode(arg, diag, s.out); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if data, err := ParseHex(arg); err == nil {
		s.last = data
	}
}

// cmdEncode takes a YAML flow mapping, for example
// {command: ThingBeginCmd, fields: {thing_id: thing-1}}.
func (s *Shell) cmdEncode(arg string) {
	if arg == "" {
		fmt.Fprintln(s.out, "Usage: encode {command: <name>, fields: {<field>: <value>, ...}}")
		return
	}
	specs, err := ParseCommandSpecs([]byte(arg))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	m, err := specs[0].Build()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	data, err := wire.Marshal(m)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.last = data
	fmt.Fprintln(s.out, hex.EncodeToString(data))
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  tags                 List the command catalog
  schema <command>     Show the fields of a command
  decode [hex]         Decode a command (default: last one)
  diag [hex]           Decode and show CBOR diagnostic notation
  encode <yaml>        Encode {command: <name>, fields: {...}}
  help                 Show this help
  exit                 Leave the shell
`)
}
