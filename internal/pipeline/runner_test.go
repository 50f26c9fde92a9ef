package pipeline

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell commands")
	}
	var out bytes.Buffer
	r := &ShellRunner{Stdout: &out}

	require.NoError(t, r.Run(context.Background(), t.TempDir(), []string{"echo one", "echo two"}))
	assert.Equal(t, "one\ntwo\n", out.String())
}

// TestShellRunnerShortCircuits verifies a failing command stops the chain and reports its status.
func TestShellRunnerShortCircuits(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell commands")
	}
	var out bytes.Buffer
	r := &ShellRunner{Stdout: &out}

	err := r.Run(context.Background(), t.TempDir(), []string{"echo before", "exit 3", "echo after"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")
	assert.Equal(t, "before\n", out.String())
}

// TestShellRunnerForwardsInput verifies prompting commands read the user's input
// in plain mode and inside a pseudo-terminal.
func TestShellRunnerForwardsInput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell commands")
	}
	for _, tty := range []bool{false, true} {
		var out bytes.Buffer
		r := &ShellRunner{Stdout: &out, Stdin: strings.NewReader("secret\n"), TTY: tty}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := r.Run(ctx, t.TempDir(), []string{"read x", "echo got:$x"})
		cancel()

		require.NoError(t, err, "tty=%v", tty)
		assert.Contains(t, out.String(), "got:secret", "tty=%v", tty)
	}
}

// TestShellRunnerTTYReportsFailure verifies exit statuses survive the pseudo-terminal.
func TestShellRunnerTTYReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell commands")
	}
	var out bytes.Buffer
	r := &ShellRunner{Stdout: &out, Stdin: strings.NewReader(""), TTY: true}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := r.Run(ctx, t.TempDir(), []string{"echo before", "exit 4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 4")
	assert.Contains(t, out.String(), "before")
}

func TestShellRunnerNoCommands(t *testing.T) {
	r := &ShellRunner{}
	assert.NoError(t, r.Run(context.Background(), t.TempDir(), nil))
}
