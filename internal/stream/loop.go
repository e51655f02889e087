// Package stream runs the read, decode, shift, encode, write cycle over a sample stream.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-doppler/internal/doppler"
	"github.com/roman-kulish/iq-doppler/internal/dsp"
	"github.com/roman-kulish/iq-doppler/internal/iq"
)

// ChunkSize is the number of bytes read per cycle. It is a multiple of every sample width.
const ChunkSize = 8192

// ErrIO is returned when reading the input or writing the output fails
var ErrIO = errors.New("stream I/O failed")

// Status of the loop after a step
type Status uint8

const (
	Running Status = iota
	Terminated
)

func (s Status) String() string {
	if s == Terminated {
		return "terminated"
	}
	return "running"
}

// State is carried from one step to the next
type State struct {
	Index     uint64 // running sample index of the mixer
	Processed uint64 // samples processed since the start of the stream
}

// Config of a stream
type Config struct {
	InFormat   iq.Format
	OutFormat  iq.Format
	SampleRate uint32
}

func (c Config) Validate() error {
	if c.SampleRate == 0 {
		return errors.New("stream.Config: sample rate must be positive")
	}
	if _, err := iq.NewCodec(c.InFormat); err != nil {
		return fmt.Errorf("stream.Config: input format: %w", err)
	}
	if _, err := iq.NewCodec(c.OutFormat); err != nil {
		return fmt.Errorf("stream.Config: output format: %w", err)
	}
	return nil
}

// WithLogger sets the logger for the loop
func WithLogger(logger *slog.Logger) func(l *Loop) {
	return func(l *Loop) {
		l.logger = logger.With(slog.String("component", "stream"))
	}
}

// Loop owns the buffers of a stream. It is driven from a single goroutine.
type Loop struct {
	config Config
	driver doppler.Driver
	r      io.Reader
	w      *bufio.Writer

	decoder *iq.Codec
	encoder *iq.Codec

	chunk   []byte
	samples []complex64
	encoded []byte

	logger *slog.Logger
}

// NewLoop creates a loop reading samples in config.InFormat from r and writing them shifted by
// the driver in config.OutFormat to w.
func NewLoop(r io.Reader, w io.Writer, config Config, driver doppler.Driver, options ...func(l *Loop)) (*Loop, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, errors.New("stream.Loop: driver is required")
	}

	decoder, _ := iq.NewCodec(config.InFormat)
	encoder, _ := iq.NewCodec(config.OutFormat)

	l := Loop{
		config:  config,
		driver:  driver,
		r:       r,
		w:       bufio.NewWriterSize(w, ChunkSize/config.InFormat.Width()*config.OutFormat.Width()),
		decoder: decoder,
		encoder: encoder,
		chunk:   make([]byte, ChunkSize),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&l)
	}

	return &l, nil
}

// Step processes one chunk. A chunk shorter than ChunkSize means the input ended: it is
// processed and the loop terminates. Output is flushed before Step returns.
func (l *Loop) Step(st State) (State, Status, error) {
	n, err := io.ReadFull(l.r, l.chunk)

	last := false
	switch {
	case errors.Is(err, io.EOF):
		return st, Terminated, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		last = true
	case err != nil:
		return st, Terminated, fmt.Errorf("%w: reading chunk: %w", ErrIO, err)
	}

	samples, err := l.decoder.Decode(l.samples, l.chunk[:n])
	if err != nil {
		return st, Terminated, fmt.Errorf("sample %d: %w", st.Processed, err)
	}

	shift, err := l.driver.Shift(st.Processed)
	if err != nil {
		return st, Terminated, err
	}

	l.samples, st.Index = dsp.Shift(samples, samples, st.Index, shift, l.config.SampleRate)
	st.Processed += uint64(len(l.samples))
	l.encoded = l.encoder.Encode(l.encoded, l.samples)

	if _, err = l.w.Write(l.encoded); err != nil {
		return st, Terminated, fmt.Errorf("%w: writing chunk: %w", ErrIO, err)
	}
	if err = l.w.Flush(); err != nil {
		return st, Terminated, fmt.Errorf("%w: flushing output: %w", ErrIO, err)
	}

	l.logger.Debug("chunk processed",
		slog.Int("samples", len(l.samples)),
		slog.Float64("shift", shift),
		slog.Uint64("index", st.Index),
	)

	if last {
		return st, Terminated, nil
	}
	return st, Running, nil
}

// Run steps the loop from st until the input ends, a step fails or ctx is done. Cancellation
// is observed between chunks; a read already waiting for input is not interrupted.
func (l *Loop) Run(ctx context.Context, st State) (State, error) {
	started := time.Now()
	initial := st.Processed

	defer func() {
		samples := st.Processed - initial
		l.logger.Info("stream finished",
			slog.String("samples", humanize.Comma(int64(samples))),
			slog.String("in", humanize.Bytes(samples*uint64(l.config.InFormat.Width()))),
			slog.String("out", humanize.Bytes(samples*uint64(l.config.OutFormat.Width()))),
			slog.Duration("elapsed", time.Since(started)),
		)
	}()

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Info("stream interrupted", slog.String("reason", err.Error()))
			return st, nil
		}

		var (
			status Status
			err    error
		)

		st, status, err = l.Step(st)
		if err != nil || status == Terminated {
			return st, err
		}
	}
}
