package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// TimeLayout is the format of --from and --to, always UTC
const TimeLayout = "2006-01-02T15:04:05"

type Config struct {
	DBPath       string
	SessionID    int64 // 0 lists sessions
	OutputFile   string
	From         *time.Time
	To           *time.Time
	MinElevation *float64
}

func NewConfig() *Config {
	return &Config{}
}

func NewConfigFromCLI(args []string, output io.Writer) (*Config, error) {
	c := NewConfig()

	var (
		from, to     string
		minElevation float64
	)

	fs := pflag.NewFlagSet("dopplerlog", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false
	fs.Usage = func() {
		_, _ = fmt.Fprintln(output, "Usage of dopplerlog:")
		fs.PrintDefaults()
	}

	fs.StringVar(&c.DBPath, "db", "", "Path to the shift log database")
	fs.Int64VarP(&c.SessionID, "session", "s", 0, "Session ID to export, sessions are listed when omitted")
	fs.StringVarP(&c.OutputFile, "output", "o", "", "Path to the CSV output file (default: stdout)")
	fs.StringVar(&from, "from", "", "Export observations from this UTC time: eg. 2015-05-13T14:28:48")
	fs.StringVar(&to, "to", "", "Export observations until this UTC time: eg. 2015-05-13T14:38:48")
	fs.Float64Var(&minElevation, "min-elevation", 0, "Export observations with the satellite at least this many degrees above the horizon")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "from":
			c.From, err = parseTime(err, from)
		case "to":
			c.To, err = parseTime(err, to)
		case "min-elevation":
			c.MinElevation = &minElevation
		}
	})

	switch {
	case err != nil:
	case c.DBPath == "":
		err = errors.New("db path is required")
	case c.SessionID < 0:
		err = fmt.Errorf("invalid session id: %d", c.SessionID)
	case c.From != nil && c.To != nil && c.From.After(*c.To):
		err = fmt.Errorf("--from %s is after --to %s", from, to)
	case c.MinElevation != nil && (*c.MinElevation < -90 || *c.MinElevation > 90):
		err = fmt.Errorf("minimum elevation must be between -90 and 90: %f given", *c.MinElevation)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	return c, nil
}

func parseTime(prev error, s string) (*time.Time, error) {
	if prev != nil {
		return nil, prev
	}

	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, expected %s: %w", s, TimeLayout, err)
	}
	return &t, nil
}
