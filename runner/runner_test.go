package runner

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerRun(t *testing.T) {
	requireShell(t)

	out, err := NewExecRunner().Run("sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestExecRunnerRunInput(t *testing.T) {
	requireShell(t)

	out, err := NewExecRunner().RunInput([]byte("from stdin"), "sh", "-c", "cat")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(out))
}

func TestExecRunnerFailure(t *testing.T) {
	requireShell(t)

	_, err := NewExecRunner().Run("sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)

	var runErr *Error
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, 3, runErr.ExitCode())
	assert.Equal(t, "broken", runErr.Output)
	assert.Contains(t, err.Error(), "sh -c echo broken >&2; exit 3")
}

func TestExecRunnerFailureKeepsStdout(t *testing.T) {
	requireShell(t)

	out, err := NewExecRunner().Run("sh", "-c", "echo partial; echo broken >&2; exit 1")
	require.Error(t, err)
	assert.Equal(t, "partial\n", string(out))

	var runErr *Error
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, "broken\npartial", runErr.Output)
	assert.Contains(t, err.Error(), "partial")
}

func TestExecRunnerNoCommand(t *testing.T) {
	_, err := NewExecRunner().Run("")
	assert.Error(t, err)
}

func TestExecRunnerLookPath(t *testing.T) {
	_, err := NewExecRunner().LookPath("portguard-definitely-not-installed")
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "iptables -A INPUT", CommandLine("iptables", "-A", "INPUT"))
	assert.Equal(t, "ss", CommandLine("ss"))
}
