// Package receiver runs an SDR receiver process and exposes its sample output as a stream.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/roman-kulish/iq-doppler/internal/iq"
)

// ErrClosed is returned by Read after Close
var ErrClosed = errors.New("receiver closed")

// WithLogger sets the logger for the source
func WithLogger(logger *slog.Logger) func(s *Source) {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithStderr sets where the receiver process diagnostics are written, os.Stderr by default
func WithStderr(w io.Writer) func(s *Source) {
	return func(s *Source) {
		s.stderr = w
	}
}

// Source is a running receiver process. Reading from it reads the samples the process writes
// to its standard output; the stream ends when the process exits.
type Source struct {
	config Config
	format iq.Format

	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr io.Writer

	closeOnce sync.Once
	closeErr  error

	logger *slog.Logger
}

// Open starts the receiver configured by config streaming samples in format
func Open(ctx context.Context, config Config, format iq.Format, options ...func(s *Source)) (*Source, error) {
	args, err := config.Args(format)
	if err != nil {
		return nil, err
	}

	binPath, err := FindRuntime(config.runtime())
	if err != nil {
		return nil, err
	}

	s := Source{
		config: config,
		format: format,
		stderr: os.Stderr,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&s)
	}

	s.logger = s.logger.With(
		slog.String("device", config.runtime()),
		slog.String("deviceArgs", config.DeviceArgs),
	)

	ctx, s.cancel = context.WithCancel(ctx)
	s.cmd = exec.CommandContext(ctx, binPath, args...)
	s.cmd.Stderr = s.stderr

	if s.stdout, err = s.cmd.StdoutPipe(); err != nil {
		s.cancel()
		return nil, NewRuntimeError("receiver: error creating stdout pipe", err)
	}

	if err = s.cmd.Start(); err != nil {
		s.cancel()
		return nil, NewRuntimeError("receiver: error starting command", err)
	}

	s.logger.Info("receiver started",
		slog.String("cmd", config.CommandLine(format)),
		slog.Int("pid", s.cmd.Process.Pid),
	)

	return &s, nil
}

// Read implements io.Reader
func (s *Source) Read(p []byte) (int, error) {
	if s.stdout == nil {
		return 0, ErrClosed
	}
	return s.stdout.Read(p)
}

// Close stops the receiver process and waits for it to exit
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		err := s.cmd.Wait()
		s.stdout = nil

		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr) && !exitErr.Exited():
			// killed by cancel
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// exited cleanly, but cancel signalled it before it was reaped
		default:
			s.closeErr = NewRuntimeError(fmt.Sprintf("receiver: %s exited with error", s.config.runtime()), err)
		}

		s.logger.Info("receiver stopped")
	})

	return s.closeErr
}
