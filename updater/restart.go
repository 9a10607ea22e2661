package updater

import (
	"fmt"
	"os"
	"os/exec"

	"logviewer/logger"
)

// ProcessRestarter starts a fresh copy of the current executable with the
// same arguments, then asks the running application to quit.
type ProcessRestarter struct {
	Quit func()
}

func (r *ProcessRestarter) Restart() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to relaunch %s: %w", exe, err)
	}
	logger.Info("Relaunched %s (pid %d), quitting", exe, cmd.Process.Pid)

	if r.Quit != nil {
		r.Quit()
	}
	return nil
}
