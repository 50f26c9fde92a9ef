package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/soda-framework/installer/internal/logger"
)

// ShellRunner runs a phase's commands joined with "&&" through the system shell,
// streaming their output to Stdout.
type ShellRunner struct {
	Stdout io.Writer
	// Stdin feeds prompts such as soda:setup; it defaults to os.Stdin.
	Stdin io.Reader
	// TTY runs commands inside a pseudo-terminal so composer and artisan keep
	// their interactive output. Input read from Stdin is forwarded to it.
	TTY bool

	pumpOnce sync.Once
	input    chan []byte
}

func shellCommand(ctx context.Context, script string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", script)
	}
	return exec.CommandContext(ctx, "sh", "-c", script)
}

// Run executes commands in dir and returns an error for a non-zero exit.
func (r *ShellRunner) Run(ctx context.Context, dir string, commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	script := strings.Join(commands, " && ")
	logger.Debug("[DEBUG] Running command in %s: %s\n", dir, script)

	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}
	in := r.Stdin
	if in == nil {
		in = os.Stdin
	}

	if r.TTY {
		cmd := shellCommand(ctx, script)
		cmd.Dir = dir
		ptmx, err := pty.Start(cmd)
		if err == nil {
			defer ptmx.Close()
			return exitError(script, r.attach(cmd, ptmx, in, out))
		}
		logger.Debug("[DEBUG] Pseudo-terminal unavailable, streaming plain output: %v\n", err)
	}

	cmd := shellCommand(ctx, script)
	cmd.Dir = dir
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = out
	return exitError(script, cmd.Run())
}

// attach connects the pseudo-terminal to the user's terminal until cmd exits.
func (r *ShellRunner) attach(cmd *exec.Cmd, ptmx *os.File, in io.Reader, out io.Writer) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if err := pty.InheritSize(f, ptmx); err != nil {
			logger.Debug("[DEBUG] Failed to size pseudo-terminal: %v\n", err)
		}
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to switch terminal to raw mode: %w", err)
		}
		defer func() {
			_ = term.Restore(int(f.Fd()), state)
		}()
	}

	done := make(chan struct{})
	defer close(done)
	go r.forward(ptmx, in, done)

	// Reading the master fails with EIO once the child closes the terminal.
	_, _ = io.Copy(out, ptmx)
	return cmd.Wait()
}

// forward copies pending input into ptmx until done is closed.
func (r *ShellRunner) forward(ptmx io.Writer, in io.Reader, done <-chan struct{}) {
	input := r.pump(in)
	for {
		select {
		case chunk, ok := <-input:
			if !ok {
				return
			}
			if _, err := ptmx.Write(chunk); err != nil {
				logger.Debug("[DEBUG] Failed to forward input: %v\n", err)
				return
			}
		case <-done:
			return
		}
	}
}

// pump starts the single reader of in. A blocked Read cannot be cancelled,
// so one goroutine serves every phase instead of one per command.
func (r *ShellRunner) pump(in io.Reader) <-chan []byte {
	r.pumpOnce.Do(func() {
		r.input = make(chan []byte)
		go func() {
			defer close(r.input)
			buf := make([]byte, 1024)
			for {
				n, err := in.Read(buf)
				if n > 0 {
					r.input <- append([]byte(nil), buf[:n]...)
				}
				if err != nil {
					return
				}
			}
		}()
	})
	return r.input
}

func exitError(script string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("command %q exited with status %d", script, exitErr.ExitCode())
	}
	return fmt.Errorf("command %q failed: %w", script, err)
}
