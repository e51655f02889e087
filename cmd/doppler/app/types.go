package app

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// StartTimeLayout is the replay start time format, always UTC
const StartTimeLayout = "2006-01-02T15:04:05"

// StartTime is the stream time of the first sample in replay mode
type StartTime struct {
	time.Time
}

func ParseStartTime(s string) (StartTime, error) {
	t, err := time.ParseInLocation(StartTimeLayout, s, time.UTC)
	if err != nil {
		return StartTime{}, fmt.Errorf("app.StartTime: expected %s: %w", StartTimeLayout, err)
	}
	return StartTime{t}, nil
}

// Set implements pflag.Value
func (t *StartTime) Set(s string) error {
	v, err := ParseStartTime(s)
	if err != nil {
		return err
	}

	*t = v
	return nil
}

// Type implements pflag.Value
func (t *StartTime) Type() string {
	return "time"
}

func (t StartTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(StartTimeLayout)
}

func (t *StartTime) UnmarshalYAML(value *yaml.Node) error {
	if err := t.Set(value.Value); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

func (t StartTime) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// TimeDuration is a time.Duration read from YAML as "500ms", "5s", "1m"
type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: line %d: failed to parse: %s", value.Line, err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d TimeDuration) Validate() error {
	if d < 0 {
		return fmt.Errorf("app.TimeDuration: must not be negative: %s", time.Duration(d))
	}
	return nil
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}
