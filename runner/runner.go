// Package runner resolves and executes the external system tools portguard
// relies on. Everything that shells out goes through a Runner so that the
// counting and blocking logic can be tested without touching the host.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner defines the interface for running external commands
type Runner interface {
	// LookPath resolves a tool on the execution path
	LookPath(file string) (string, error)

	// Run runs a command and returns its standard output
	Run(name string, args ...string) ([]byte, error)

	// RunInput runs a command with input on its standard input
	RunInput(input []byte, name string, args ...string) ([]byte, error)
}

// ExecRunner implements the Runner interface with os/exec
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// LookPath resolves a tool on the execution path
func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run runs a command and returns its standard output
func (r *ExecRunner) Run(name string, args ...string) ([]byte, error) {
	return r.run(nil, name, args...)
}

// RunInput runs a command with input on its standard input
func (r *ExecRunner) RunInput(input []byte, name string, args ...string) ([]byte, error) {
	return r.run(input, name, args...)
}

func (r *ExecRunner) run(input []byte, name string, args ...string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("no command supplied")
	}

	cmd := exec.Command(name, args...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdoutBuf bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		return stdoutBuf.Bytes(), &Error{
			Command: CommandLine(name, args...),
			Output:  combinedOutput(stderrBuf.String(), stdoutBuf.String()),
			Err:     err,
		}
	}

	return stdoutBuf.Bytes(), nil
}

// combinedOutput joins the non-empty streams of a failed command, stderr first
func combinedOutput(streams ...string) string {
	var parts []string
	for _, s := range streams {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Error is returned when a command could not be started or exited non-zero
type Error struct {
	Command string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v (output: %s)", e.Command, e.Err, e.Output)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code of the failed command, or -1 if it never ran.
func (e *Error) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// CommandLine renders a command for log and error messages
func CommandLine(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
