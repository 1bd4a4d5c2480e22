//go:build windows

package backend

import (
	"os/exec"
	"strconv"
	"syscall"
)

// isolate starts the tool in a new process group so console Ctrl+C events
// reach only streamgrab.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// terminate kills the process and every child it spawned; yt-dlp and ffmpeg
// both start helpers that a plain Kill would orphan.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return exec.Command("taskkill", "/pid", strconv.Itoa(cmd.Process.Pid), "/T", "/F").Run()
}

func kill(cmd *exec.Cmd) error {
	return terminate(cmd)
}

// killedBySignal is always false: Windows reports console interrupts as a
// plain exit code.
func killedBySignal(error) bool {
	return false
}
