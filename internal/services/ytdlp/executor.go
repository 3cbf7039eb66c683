package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

const stderrTailBytes = 2048

// commandExecutor runs yt-dlp in its own process group so a timeout can kill
// the tool together with any ffmpeg children it spawned.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, dir string) ([]byte, error) {
	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd.Process.Pid)
		<-done
		return stdout.Bytes(), ctx.Err()
	case err := <-done:
		if err != nil {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", binary, err, stderrTail(&stderr))
		}
		return stdout.Bytes(), nil
	}
}

func killProcessGroup(pid int) {
	// Negative pid addresses the whole group; fall back to the direct pid if
	// the group is already gone.
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		_ = unix.Kill(pid, unix.SIGKILL)
	}
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if len(s) > stderrTailBytes {
		s = s[len(s)-stderrTailBytes:]
	}
	if s == "" {
		return "(no stderr)"
	}
	return s
}
