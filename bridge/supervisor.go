package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"goa.design/clue/log"
)

const (
	defaultTailSize = 50
	defaultGrace    = 3 * time.Second
)

// Supervisor launches bridge processes.
type Supervisor struct {
	options  Options
	tailSize int
}

// Start spawns the bridge. The returned process must be stopped by the caller.
func (s *Supervisor) Start(ctx context.Context) (*Process, error) {
	if s.options.Command == "" {
		return nil, &StartupError{Err: errors.New("bridge command was empty")}
	}
	cmd := exec.Command(s.options.Command, s.options.Args...)
	cmd.Dir = s.options.Dir
	if len(s.options.Env) > 0 {
		cmd.Env = append(os.Environ(), s.options.Env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &StartupError{Command: s.options.Command, Err: err}
	}
	// os pipes instead of StdoutPipe so that Wait never closes a stream the reader still owns
	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		return nil, &StartupError{Command: s.options.Command, Err: err}
	}
	stderrReader, stderrWriter, err := os.Pipe()
	if err != nil {
		closeAll(stdoutReader, stdoutWriter)
		return nil, &StartupError{Command: s.options.Command, Err: err}
	}
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter
	if err = cmd.Start(); err != nil {
		closeAll(stdoutReader, stdoutWriter, stderrReader, stderrWriter)
		return nil, &StartupError{Command: s.options.Command, Err: err}
	}
	closeAll(stdoutWriter, stderrWriter)

	ret := &Process{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdoutReader,
		stderr:  newTail(s.tailSize),
		grace:   s.options.Grace,
		exited:  make(chan struct{}),
		drained: make(chan struct{}),
	}
	go ret.drain(ctx, stderrReader)
	go ret.wait()
	log.Info(ctx, log.KV{K: "msg", V: "bridge started"}, log.KV{K: "command", V: s.options.Command}, log.KV{K: "pid", V: cmd.Process.Pid})

	if s.options.Warmup > 0 {
		select {
		case <-time.After(s.options.Warmup):
		case <-ret.exited:
			<-ret.drained
			return nil, &StartupError{Command: s.options.Command, Stderr: ret.StderrTail(), Err: fmt.Errorf("bridge exited during warm-up: %w", exitErr(ret.ExitErr()))}
		case <-ctx.Done():
			_ = ret.Stop()
			return nil, &StartupError{Command: s.options.Command, Err: ctx.Err()}
		}
	}
	return ret, nil
}

func exitErr(err error) error {
	if err == nil {
		return errors.New("exit status 0")
	}
	return err
}

func (p *Process) drain(ctx context.Context, reader io.ReadCloser) {
	defer close(p.drained)
	defer reader.Close()
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		p.stderr.add(line)
		log.Debug(ctx, log.KV{K: "msg", V: "bridge stderr"}, log.KV{K: "line", V: line})
	}
}

func closeAll(closers ...io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}

// New creates a supervisor
func New(options ...Option) *Supervisor {
	ret := &Supervisor{tailSize: defaultTailSize}
	for _, opt := range options {
		opt(ret)
	}
	if ret.options.Grace <= 0 {
		ret.options.Grace = defaultGrace
	}
	return ret
}
