//go:build windows

package receiver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FindRuntime locates the receiver binary in PATH, then in bin/*/windows/x64 next to the
// executable or the working directory.
func FindRuntime(runtime string) (string, error) {
	if binPath, err := exec.LookPath(runtime); err == nil {
		return binPath, nil
	} else if !errors.Is(err, exec.ErrNotFound) {
		return "", NewRuntimeError("receiver: failed to locate binary", err)
	}

	var lookup []string

	exePath, err := os.Executable()
	if err != nil {
		return "", NewRuntimeError("receiver: failed to get executable path", err)
	}
	lookup = append(lookup, filepath.Dir(exePath))

	wd, err := os.Getwd()
	if err != nil {
		return "", NewRuntimeError("receiver: failed to get current working directory", err)
	}
	lookup = append(lookup, wd)

	for _, exeDir := range lookup {
		matches, err := filepath.Glob(filepath.Join(exeDir, "bin", "*", "windows", "x64", fmt.Sprintf("%s.exe", runtime)))
		if err != nil || len(matches) == 0 {
			continue // continue to next directory
		}

		binPath := matches[0]
		if _, err = os.Stat(binPath); err != nil {
			continue // continue to next directory
		}

		return binPath, nil
	}

	return "", NewRuntimeError(fmt.Sprintf("receiver: failed to find binary '%s'", runtime), exec.ErrNotFound)
}
