//go:build !windows

package receiver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/iq-doppler/internal/iq"
)

// fakeReceiver writes a script standing in for rx_sdr
func fakeReceiver(t *testing.T, body string) string {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "rx_sdr")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestSourceStreamsStdout(t *testing.T) {
	config := Config{
		Runtime:    fakeReceiver(t, `printf 'abcdefgh'`),
		Frequency:  437_800_000,
		SampleRate: 48_000,
	}

	src, err := Open(context.Background(), config, iq.FixedPoint16, WithStderr(io.Discard))
	require.NoError(t, err)

	got, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefgh"), got)
	assert.NoError(t, src.Close())

	_, err = src.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSourceCloseStopsReceiver(t *testing.T) {
	config := Config{
		Runtime:    fakeReceiver(t, `exec sleep 30`),
		Frequency:  437_800_000,
		SampleRate: 48_000,
	}

	src, err := Open(context.Background(), config, iq.Float32, WithStderr(io.Discard))
	require.NoError(t, err)

	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestSourceReportsFailedReceiver(t *testing.T) {
	config := Config{
		Runtime:    fakeReceiver(t, `exit 3`),
		Frequency:  437_800_000,
		SampleRate: 48_000,
	}

	src, err := Open(context.Background(), config, iq.FixedPoint16, WithStderr(io.Discard))
	require.NoError(t, err)

	_, err = io.ReadAll(src)
	require.NoError(t, err)

	var runtimeErr *RuntimeError
	assert.ErrorAs(t, src.Close(), &runtimeErr)
}

func TestOpenMissingRuntime(t *testing.T) {
	config := Config{
		Runtime:    filepath.Join(t.TempDir(), "missing"),
		Frequency:  437_800_000,
		SampleRate: 48_000,
	}

	_, err := Open(context.Background(), config, iq.FixedPoint16)
	var runtimeErr *RuntimeError
	assert.ErrorAs(t, err, &runtimeErr)
}
