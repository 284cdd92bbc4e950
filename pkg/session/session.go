package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Session errors.
var (
	// ErrNoHandler indicates a decoded command with no registered handler.
	ErrNoHandler = errors.New("no handler registered")

	// ErrDropped indicates an inbound frame that could not be decoded.
	// The decode error is wrapped alongside it.
	ErrDropped = errors.New("frame dropped")

	// ErrInvalidConfig indicates a Config that fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// minFrameSize is the size of the smallest encoded command.
const minFrameSize = 6

// Config configures a Session.
type Config struct {
	// MaxFrameSize bounds inbound frames and the encoded size of
	// outbound commands.
	MaxFrameSize uint32

	// LogFrameData records raw frame bytes in capture events.
	LogFrameData bool

	// MaxLogFrameDataSize truncates recorded frame bytes.
	MaxLogFrameDataSize int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives frame and command capture events.
	// If nil, capture is disabled.
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxFrameSize:        DefaultMaxFrameSize,
		LogFrameData:        true,
		MaxLogFrameDataSize: DefaultMaxLogFrameDataSize,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.MaxFrameSize < minFrameSize {
		return fmt.Errorf("%w: max frame size %d below %d", ErrInvalidConfig, c.MaxFrameSize, minFrameSize)
	}
	if c.LogFrameData && c.MaxLogFrameDataSize <= 0 {
		return fmt.Errorf("%w: frame data logging needs a positive size", ErrInvalidConfig)
	}
	return nil
}

// Handler processes one decoded inbound command.
type Handler interface {
	HandleCommand(ctx context.Context, m wire.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, m wire.Message) error

// HandleCommand calls f(ctx, m).
func (f HandlerFunc) HandleCommand(ctx context.Context, m wire.Message) error {
	return f(ctx, m)
}

// Stats counts session traffic.
type Stats struct {
	Received  uint64 // inbound frames handed to Dispatch
	Sent      uint64 // outbound commands written
	Dropped   uint64 // inbound frames that failed to decode
	Unhandled uint64 // decoded commands without a handler
	Failed    uint64 // handler or send errors
}

// Session routes cloud commands between a byte stream and handlers.
//
// Outbound commands are framed onto the writer given to New. Inbound
// frames come from Serve or directly from Dispatch. Handlers are
// registered per command; both directions are accepted since the codec
// is symmetric.
type Session struct {
	id     string
	config Config
	writer *FrameWriter

	logger         *slog.Logger
	protocolLogger log.Logger

	mu       sync.RWMutex
	handlers map[wire.CommandID]Handler
	thingID  string

	statsMu sync.Mutex
	stats   Stats
}

// New creates a session writing frames to w. The session ID is a random
// UUID recorded in every capture event.
func New(config Config, w io.Writer) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:             uuid.New().String(),
		config:         config,
		writer:         NewFrameWriterWithMaxSize(w, config.MaxFrameSize),
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
		handlers:       make(map[wire.CommandID]Handler),
	}
	if s.protocolLogger != nil {
		s.writer.SetLogger(s.protocolLogger, s.id, s.frameDataSize())
	}
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// ThingID returns the thing ID from the last ThingBeginCmd seen in
// either direction, or "" if none was seen.
func (s *Session) ThingID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thingID
}

// Handle registers h for command id, replacing any previous handler.
func (s *Session) Handle(id wire.CommandID, h Handler) error {
	if !id.IsValid() {
		return fmt.Errorf("%w: %d", wire.ErrUnknownCommand, id)
	}
	if h == nil {
		return fmt.Errorf("nil handler for %s", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[id] = h
	return nil
}

// Dispatch decodes one inbound frame payload and runs its handler.
//
// Undecodable frames are captured as error events and reported as
// ErrDropped wrapping the decode error; wire.StateOf recovers the
// decoder state. Commands without a handler return ErrNoHandler.
func (s *Session) Dispatch(ctx context.Context, frame []byte) error {
	s.count(func(st *Stats) { st.Received++ })

	m, err := wire.DecodeNew(frame)
	if err != nil {
		s.count(func(st *Stats) { st.Dropped++ })
		s.logError(log.DirectionIn, "dispatch", err)
		return fmt.Errorf("%w: %w", ErrDropped, err)
	}

	s.observe(m)
	s.logCommand(log.DirectionIn, m, len(frame))

	s.mu.RLock()
	h := s.handlers[m.Command()]
	s.mu.RUnlock()
	if h == nil {
		s.count(func(st *Stats) { st.Unhandled++ })
		return fmt.Errorf("%w: %s", ErrNoHandler, m.Command())
	}

	if err := h.HandleCommand(ctx, m); err != nil {
		s.count(func(st *Stats) { st.Failed++ })
		return fmt.Errorf("%s handler: %w", m.Command(), err)
	}
	return nil
}

// Send encodes m and writes it as one frame. Commands that do not fit
// MaxFrameSize fail with wire.ErrBufferTooSmall and nothing is written.
func (s *Session) Send(ctx context.Context, m wire.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := wire.Marshal(m)
	if err == nil && uint64(len(data)) > uint64(s.config.MaxFrameSize) {
		err = fmt.Errorf("%w: need %d bytes, max frame %d", wire.ErrBufferTooSmall, len(data), s.config.MaxFrameSize)
	}
	if err != nil {
		s.count(func(st *Stats) { st.Failed++ })
		s.logError(log.DirectionOut, "send", err)
		return err
	}

	if err := s.writer.WriteFrame(data); err != nil {
		s.count(func(st *Stats) { st.Failed++ })
		s.logError(log.DirectionOut, "send", err)
		return err
	}

	s.observe(m)
	s.logCommand(log.DirectionOut, m, len(data))
	s.count(func(st *Stats) { st.Sent++ })
	return nil
}

// Serve reads frames from r and dispatches each until r is exhausted or
// ctx is done. Dispatch errors are logged and do not stop the loop;
// framing errors other than an empty frame end it.
//
// A clean end of stream returns nil. Cancellation is checked between
// frames, so a blocked read delays the return until it completes.
func (s *Session) Serve(ctx context.Context, r io.Reader) error {
	reader := NewFrameReaderWithMaxSize(r, s.config.MaxFrameSize)
	if s.protocolLogger != nil {
		reader.SetLogger(s.protocolLogger, s.id, s.frameDataSize())
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, ErrFrameEmpty) {
				s.debugLog("skipping empty frame")
				continue
			}
			s.logError(log.DirectionIn, "read", err)
			return err
		}

		if err := s.Dispatch(ctx, frame); err != nil {
			s.debugLog("dispatch failed", "error", err)
		}
	}
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Session) count(f func(*Stats)) {
	s.statsMu.Lock()
	f(&s.stats)
	s.statsMu.Unlock()
}

func (s *Session) frameDataSize() int {
	if !s.config.LogFrameData {
		return 0
	}
	return s.config.MaxLogFrameDataSize
}

// observe tracks session metadata carried by commands.
func (s *Session) observe(m wire.Message) {
	if begin, ok := m.(*wire.ThingBeginCmd); ok {
		s.mu.Lock()
		s.thingID = begin.ThingID
		s.mu.Unlock()
	}
}

func (s *Session) logCommand(direction log.Direction, m wire.Message, size int) {
	if s.protocolLogger == nil {
		return
	}
	cmd := log.NewCommandEvent(m)
	cmd.Size = size
	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: direction,
		Layer:     log.LayerCommand,
		Category:  log.CategoryCommand,
		ThingID:   s.ThingID(),
		Command:   cmd,
	})
}

func (s *Session) logError(direction log.Direction, op string, err error) {
	if op != "dispatch" {
		s.debugLog(op+" failed", "error", err)
	}
	if s.protocolLogger == nil {
		return
	}

	layer := log.LayerFrame
	var state *wire.DecoderState
	if op == "dispatch" {
		layer = log.LayerCommand
		st := wire.StateOf(err)
		state = &st
	} else if errors.Is(err, wire.ErrBufferTooSmall) || errors.Is(err, wire.ErrFieldTooLong) || errors.Is(err, wire.ErrUnknownCommand) {
		layer = log.LayerCommand
	}

	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: direction,
		Layer:     layer,
		Category:  log.CategoryError,
		ThingID:   s.ThingID(),
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			State:   state,
			Context: op,
		},
	})
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, append([]any{"session", s.id}, args...)...)
	}
}
