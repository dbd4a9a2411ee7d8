package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// Command is one external invocation.
type Command struct {
	Group string
	Step  Step
	Args  []string
	Dir   string
	Env   map[string]string // overrides on top of the process environment
}

// Executor runs external commands. Implementations return a
// *errors.CommandError when the command exits non-zero.
type Executor interface {
	Run(ctx context.Context, c Command) error
}

// ExecExecutor runs commands with os/exec. Output is either streamed to
// the terminal unchanged (Passthrough) or logged line by line, stdout at
// info and stderr at warn level.
type ExecExecutor struct {
	Logger      *log.Logger
	Passthrough bool
	Stdout      io.Writer
	Stderr      io.Writer
}

// NewExecExecutor returns an executor that logs subprocess output.
func NewExecExecutor(logger *log.Logger) *ExecExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &ExecExecutor{Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes c and waits for it to finish.
func (e *ExecExecutor) Run(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return nil
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec // user configured command
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env)

	logger := e.Logger.With("group", c.Group, "step", string(c.Step))
	var stdout, stderr *lineWriter
	if e.Passthrough {
		cmd.Stdout, cmd.Stderr = e.Stdout, e.Stderr
	} else {
		stdout = &lineWriter{emit: func(s string) { logger.Info(s) }}
		stderr = &lineWriter{emit: func(s string) { logger.Warn(s) }}
		cmd.Stdout, cmd.Stderr = stdout, stderr
	}

	err := cmd.Run()
	if stdout != nil {
		stdout.Flush()
		stderr.Flush()
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	exitCode := -1
	var exitErr *exec.ExitError
	switch {
	case stderrors.As(err, &exitErr):
		exitCode = exitErr.ExitCode()
		// Killed by a signal: report it the way a shell does.
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			exitCode = 128 + int(ws.Signal())
		}
	case stderrors.Is(err, exec.ErrNotFound):
		exitCode = 127
	}
	return &errors.CommandError{Args: c.Args, ExitCode: exitCode, Err: err}
}

// lineWriter buffers partial writes and emits complete lines.
type lineWriter struct {
	emit func(string)
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(strings.TrimRight(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}

// mergeEnv applies overrides on top of base, keeping base order.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, entry := range base {
		k, _, _ := strings.Cut(entry, "=")
		if v, ok := overrides[k]; ok {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, entry)
	}
	for k, v := range overrides {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}
