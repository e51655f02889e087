package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/roman-kulish/iq-doppler/cmd/doppler/app"
)

func main() {
	// stdout carries samples, everything else goes to stderr
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "doppler",
	})
	logger := slog.New(handler)

	config, err := app.NewConfigFromCLI(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(app.ExitOK)
		}

		logger.Error(err.Error())
		os.Exit(app.ExitCode(err))
	}

	level, _ := log.ParseLevel(config.Settings.LogLevel)
	handler.SetLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(app.ExitCode(err))
	}
}
