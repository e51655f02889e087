//go:build !windows

package receiver

import (
	"errors"
	"fmt"
	"os/exec"
)

// FindRuntime locates the receiver binary in PATH, or checks it when runtime is a path
func FindRuntime(runtime string) (string, error) {
	binPath, err := exec.LookPath(runtime)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", NewRuntimeError(fmt.Sprintf("receiver: `%s` not found in PATH", runtime), err)
		}
		return "", NewRuntimeError("receiver: failed to locate binary", err)
	}

	return binPath, nil
}
