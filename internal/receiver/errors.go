package receiver

// ConfigError is a custom error type for receiver configuration errors
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// RuntimeError is a custom error type for failures of the receiver process
type RuntimeError struct {
	msg string
	err error
}

func NewRuntimeError(msg string, err error) *RuntimeError {
	return &RuntimeError{msg: msg, err: err}
}

func (e *RuntimeError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.err
}
