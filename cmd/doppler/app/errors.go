package app

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/iq-doppler/internal/iq"
	"github.com/roman-kulish/iq-doppler/internal/orbit"
	"github.com/roman-kulish/iq-doppler/internal/receiver"
	"github.com/roman-kulish/iq-doppler/internal/stream"
)

// Process exit statuses
const (
	ExitOK        = 0
	ExitConfig    = 2
	ExitMalformed = 3
	ExitIO        = 4
	ExitRuntime   = 5
)

// ConfigError is a configuration problem detected before any sample is read
type ConfigError struct {
	Msg string
	Err error
}

func NewConfigError(msg string, err error) *ConfigError {
	return &ConfigError{Msg: msg, Err: err}
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Run or NewConfigFromCLI to a process exit status
func ExitCode(err error) int {
	var (
		configErr   *ConfigError
		receiverErr *receiver.ConfigError
	)

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &configErr),
		errors.As(err, &receiverErr),
		errors.Is(err, orbit.ErrTLENotFound),
		errors.Is(err, orbit.ErrInvalidTLE),
		errors.Is(err, orbit.ErrInvalidLocation):
		return ExitConfig
	case errors.Is(err, iq.ErrMalformedChunk):
		return ExitMalformed
	case errors.Is(err, stream.ErrIO):
		return ExitIO
	default:
		return ExitRuntime
	}
}
