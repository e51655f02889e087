package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-doppler/internal/storage"
)

var csvHeader = []string{
	"timestamp",
	"sample_index",
	"azimuth",
	"elevation",
	"range_km",
	"range_rate_kms",
	"doppler_hz",
	"shift_hz",
}

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	if _, statErr := os.Stat(config.DBPath); statErr != nil && os.IsNotExist(statErr) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, statErr)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	var w io.Writer = os.Stdout
	if config.OutputFile != "" {
		var f *os.File
		if f, err = os.Create(config.OutputFile); err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer closeWithError(f, &err)
		w = f
	}

	if config.SessionID == 0 {
		return listSessions(ctx, store, w)
	}
	return exportObservations(ctx, store, config, w, logger)
}

func listSessions(ctx context.Context, store storage.Store, w io.Writer) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("reading sessions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTART\tMODE\tLABEL")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.StartTime.Format(time.DateTime), s.Mode, s.Label)
	}

	return tw.Flush()
}

func exportObservations(ctx context.Context, store *storage.SqliteStore, config *Config, w io.Writer, logger *slog.Logger) error {
	var (
		opts    []storage.ReaderOption
		filters []any
	)

	switch {
	case config.From != nil && config.To != nil:
		opts = append(opts, storage.WithTimeRange(*config.From, *config.To))
		filters = append(filters,
			slog.String("from", config.From.Format(time.DateTime)),
			slog.String("to", config.To.Format(time.DateTime)))

	case config.From != nil:
		opts = append(opts, storage.WithStartTime(*config.From))
		filters = append(filters, slog.String("from", config.From.Format(time.DateTime)))

	case config.To != nil:
		opts = append(opts, storage.WithEndTime(*config.To))
		filters = append(filters, slog.String("to", config.To.Format(time.DateTime)))
	}

	if config.MinElevation != nil {
		opts = append(opts, storage.WithMinElevation(*config.MinElevation))
		filters = append(filters, slog.Float64("minElevation", *config.MinElevation))
	}

	logger.Info("reader configuration", filters...)

	iter, err := store.ReadObservations(ctx, config.SessionID, opts...)
	if err != nil {
		return err
	}
	defer iter.Close()

	sess := iter.Session()
	logger.Info("exporting session",
		slog.Int64("session", sess.ID),
		slog.String("mode", sess.Mode),
		slog.String("label", sess.Label),
		slog.String("start", sess.StartTime.Format(time.DateTime)),
	)

	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var count int64
	for iter.Next(ctx) {
		if err = cw.Write(observationRecord(iter.Current())); err != nil {
			return fmt.Errorf("writing observation: %w", err)
		}
		count++
	}
	if err = iter.Error(); err != nil {
		return fmt.Errorf("reading observations: %w", err)
	}

	cw.Flush()
	if err = cw.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	logger.Info("export finished", slog.String("observations", humanize.Comma(count)))
	return nil
}

func observationRecord(o *storage.Observation) []string {
	return []string{
		o.Timestamp.Format(time.RFC3339Nano),
		strconv.FormatUint(o.SampleIndex, 10),
		formatFloat(o.AzimuthDeg, 3),
		formatFloat(o.ElevationDeg, 3),
		formatFloat(o.RangeKm, 3),
		formatFloat(o.RangeRateKmS, 6),
		formatFloat(o.DopplerHz, 3),
		formatFloat(o.ShiftHz, 3),
	}
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func closeWithError(cl io.Closer, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
