package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/session"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// ReplayOptions configures the replay command.
type ReplayOptions struct {
	// ProtocolLog is an optional capture file for frame and command
	// events. The extension selects compression.
	ProtocolLog string

	// MaxFrameSize overrides the session frame limit when non-zero.
	MaxFrameSize uint32

	// Logger receives debug output and, when set, a copy of every
	// protocol event.
	Logger *slog.Logger
}

// RunReplay feeds a length-prefixed frame stream through a session and
// prints every command that decodes. Undecodable frames are counted and
// skipped.
func RunReplay(ctx context.Context, path string, opts ReplayOptions, w io.Writer) (session.Stats, error) {
	in, err := os.Open(path)
	if err != nil {
		return session.Stats{}, fmt.Errorf("failed to open frame stream: %w", err)
	}
	defer in.Close()

	var loggers []log.Logger
	if opts.ProtocolLog != "" {
		fileLogger, err := log.NewFileLogger(opts.ProtocolLog)
		if err != nil {
			return session.Stats{}, fmt.Errorf("failed to create protocol log: %w", err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}
	if opts.Logger != nil {
		loggers = append(loggers, log.NewSlogAdapter(opts.Logger))
	}

	config := session.DefaultConfig()
	if opts.MaxFrameSize != 0 {
		config.MaxFrameSize = opts.MaxFrameSize
	}
	config.Logger = opts.Logger
	if len(loggers) > 0 {
		config.ProtocolLogger = log.NewMultiLogger(loggers...)
	}

	sess, err := session.New(config, io.Discard)
	if err != nil {
		return session.Stats{}, err
	}

	printer := session.HandlerFunc(func(_ context.Context, m wire.Message) error {
		n, err := wire.EncodedLen(m)
		if err != nil {
			return err
		}
		formatMessage(w, m, n)
		return nil
	})
	for _, id := range wire.Commands() {
		if err := sess.Handle(id, printer); err != nil {
			return session.Stats{}, err
		}
	}

	if err := sess.Serve(ctx, in); err != nil {
		return sess.Stats(), fmt.Errorf("replay stopped: %w", err)
	}

	stats := sess.Stats()
	fmt.Fprintf(w, "\nReplayed %d frames: %d decoded, %d dropped\n",
		stats.Received, stats.Received-stats.Dropped, stats.Dropped)
	return stats, nil
}
