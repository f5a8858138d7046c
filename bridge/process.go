package bridge

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Process is a running bridge.
type Process struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *os.File
	stderr   *tail
	grace    time.Duration
	exited   chan struct{}
	drained  chan struct{}
	exitErr  error
	stopOnce sync.Once
	stopErr  error
}

// Stdin returns the bridge input stream.
func (p *Process) Stdin() io.Writer {
	return p.stdin
}

// Stdout returns the bridge output stream.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Pid returns the bridge process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Exited is closed once the process has terminated.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// ExitErr returns the wait error; it is only meaningful after Exited is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.exited:
		return p.exitErr
	default:
		return nil
	}
}

// StderrTail returns the most recent stderr lines.
func (p *Process) StderrTail() []string {
	return p.stderr.snapshot()
}

func (p *Process) wait() {
	p.exitErr = p.cmd.Wait()
	close(p.exited)
}

// Stop terminates the bridge and returns once it is no longer running. It is safe to call more than once.
func (p *Process) Stop() error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop()
	})
	return p.stopErr
}

func (p *Process) stop() error {
	defer p.stdout.Close()
	_ = p.stdin.Close()
	select {
	case <-p.exited:
		return nil
	default:
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// no signal support on this platform, or the process is already gone
		_ = p.cmd.Process.Kill()
	}
	timer := time.NewTimer(p.grace)
	defer timer.Stop()
	select {
	case <-p.exited:
		return nil
	case <-timer.C:
	}
	killErr := p.cmd.Process.Kill()
	timer.Reset(p.grace)
	select {
	case <-p.exited:
		return nil
	case <-timer.C:
		if killErr == nil {
			killErr = fmt.Errorf("bridge %d still running after kill", p.Pid())
		}
		return killErr
	}
}
