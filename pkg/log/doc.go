// Package log provides structured protocol capture for cloud commands.
//
// This package defines the Logger interface and Event types for capturing
// command traffic at two layers: raw frames and decoded commands. It is
// separate from operational logging (slog); a capture is a complete
// machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a capture file, zstd compressed
//	logger, _ := log.NewFileLogger("/var/log/cloudcmd/device.clog.zst")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Capture files are concatenated CBOR events with integer keys, extension
// .clog. A trailing .zst or .lz4 wraps the stream in zstd or LZ4. The
// cloudcmd CLI provides viewing, filtering and export.
package log
