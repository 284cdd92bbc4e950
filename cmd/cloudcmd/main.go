// Command cloudcmd inspects, encodes and decodes cloud commands and
// analyzes protocol capture files.
//
// Usage:
//
//	cloudcmd <command> [flags] [args]
//
// Commands:
//
//	tags     List the command catalog
//	schema   Show the fields of one command
//	decode   Decode a hex-encoded command
//	encode   Encode commands described in YAML
//	shell    Interactive decode/encode shell
//	replay   Dispatch a framed command stream through a session
//	log      View, filter, export or summarize capture files
//
// Examples:
//
//	# Decode a captured frame with CBOR diagnostics
//	cloudcmd decode -diag da00010900 82 1a65dcb821 1a78aca191
//
//	# Encode a YAML command description
//	cloudcmd encode -f ota.yaml
//
//	# Write commands as a framed stream and replay it with capture
//	cloudcmd encode -f cmds.yaml -o stream.bin
//	cloudcmd replay -protocol-log replay.clog.zst stream.bin
//
//	# View only inbound command events of a zstd capture
//	cloudcmd log view -layer command -direction in device.clog.zst
//
//	# Keep one thing's traffic in a new LZ4 capture
//	cloudcmd log filter -thing-id thing-1 -o thing-1.clog.lz4 device.clog
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/cloudcmd-protocol/cloudcmd-go/cmd/cloudcmd/commands"
)

const usage = `cloudcmd - Cloud Command Codec Tool

Usage:
  cloudcmd <command> [flags] [args]

Commands:
  tags     List the command catalog
  schema   Show the fields of one command
  decode   Decode a hex-encoded command
  encode   Encode commands described in YAML
  shell    Interactive decode/encode shell
  replay   Dispatch a framed command stream through a session
  log      View, filter, export or summarize capture files

Use "cloudcmd <command> -help" for more information about a command.
`

const logUsage = `cloudcmd log - Capture file tools

Usage:
  cloudcmd log <command> [flags] <file.clog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Files ending in .zst or .lz4 are read and written compressed.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "tags":
		runTags(args)
	case "schema":
		runSchema(args)
	case "decode":
		runDecode(args)
	case "encode":
		runEncode(args)
	case "shell":
		runShell(args)
	case "replay":
		runReplay(args)
	case "log":
		runLog(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runTags(args []string) {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd tags - List the command catalog

Usage:
  cloudcmd tags

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if err := commands.RunTags(os.Stdout); err != nil {
		fatal(err)
	}
}

func runSchema(args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd schema - Show the fields of one command

Usage:
  cloudcmd schema <command>

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: command name required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunSchema(fs.Arg(0), os.Stdout); err != nil {
		fatal(err)
	}
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd decode - Decode a hex-encoded command

Usage:
  cloudcmd decode [flags] <hex>...

Hex may be split across arguments.

Flags:
`)
		fs.PrintDefaults()
	}

	diag := fs.Bool("diag", false, "Also print CBOR diagnostic notation")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: hex input required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunDecode(strings.Join(fs.Args(), ""), *diag, os.Stdout); err != nil {
		fatal(err)
	}
}

func runEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd encode - Encode commands described in YAML

Usage:
  cloudcmd encode -f <file.yaml> [-o stream.bin]

Each YAML document holds one command:

  command: TimezoneCommandDown
  fields:
    offset: 3600
    until: 1735689600

Flags:
`)
		fs.PrintDefaults()
	}

	file := fs.String("f", "", "YAML command file (- for stdin)")
	output := fs.String("o", "", "Write a length-prefixed frame stream instead of hex")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: command file (-f) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunEncode(*file, *output, os.Stdout); err != nil {
		fatal(err)
	}
}

func runShell(args []string) {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sh, err := commands.NewShell()
	if err != nil {
		fatal(err)
	}
	sh.Run(ctx)
}

func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd replay - Dispatch a framed command stream through a session

Usage:
  cloudcmd replay [flags] <stream.bin>

The stream holds 4-byte big-endian length-prefixed frames, as written by
"cloudcmd encode -o".

Flags:
`)
		fs.PrintDefaults()
	}

	protocolLog := fs.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
	maxFrame := fs.Uint("max-frame", 0, "Maximum frame size in bytes (default 65536)")
	verbose := fs.Bool("v", false, "Log session and protocol events to stderr")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: stream file path required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.ReplayOptions{
		ProtocolLog:  *protocolLog,
		MaxFrameSize: uint32(*maxFrame),
	}
	if *verbose {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := commands.RunReplay(ctx, fs.Arg(0), opts, os.Stdout); err != nil {
		fatal(err)
	}
}

func runLog(args []string) {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, logUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "view":
		runLogView(args[1:])
	case "export":
		runLogExport(args[1:])
	case "filter":
		runLogFilter(args[1:])
	case "stats":
		runLogStats(args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Print(logUsage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown log command: %s\n", args[0])
		fmt.Fprint(os.Stderr, logUsage)
		os.Exit(1)
	}
}

func runLogView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd log view - View capture file in human-readable format

Usage:
  cloudcmd log view [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (frame, command)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (command, error)")
	command := fs.String("command", "", "Filter by command name")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	var filter commands.ViewFilter

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if *command != "" {
		id, err := commands.ParseCommandFlag(*command)
		if err != nil {
			fatal(err)
		}
		filter.CommandID = &id
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runLogExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd log export - Export capture file to JSON or CSV format

Usage:
  cloudcmd log export [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fatal(err)
	}
}

func runLogFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd log filter - Filter capture file and write to new file

Usage:
  cloudcmd log filter [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session-id", "", "Filter by session ID")
	thingID := fs.String("thing-id", "", "Filter by thing ID")
	command := fs.String("command", "", "Filter by command name")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (frame, command)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (command, error)")
	compression := fs.String("compress", "", "Output compression (none, zstd, lz4; default: from extension)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:      *output,
		SessionID:   *sessionID,
		ThingID:     *thingID,
		Command:     *command,
		TimeStart:   *timeStart,
		TimeEnd:     *timeEnd,
		Layer:       *layer,
		Direction:   *direction,
		Category:    *category,
		Compression: *compression,
	}

	count, err := commands.RunFilter(fs.Arg(0), opts)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runLogStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloudcmd log stats - Show statistics about the capture file

Usage:
  cloudcmd log stats <file.clog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fatal(err)
	}
}
