// Package runnertest provides a scripted Runner for tests.
package runnertest

import (
	"fmt"
	"os/exec"
	"strings"
)

// Call records one command invocation
type Call struct {
	Name  string
	Args  []string
	Input []byte
}

// String renders the call as a command line
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is the scripted outcome of a command
type Response struct {
	Output []byte
	Err    error
}

// Runner is a fake runner.Runner. Tools lists the names LookPath resolves.
// Responses are keyed by the rendered command line, or by the bare command
// name as a fallback. Unscripted commands succeed with empty output.
type Runner struct {
	Tools     map[string]bool
	Responses map[string]Response
	Calls     []Call
}

// New creates a fake runner that resolves the given tools
func New(tools ...string) *Runner {
	r := &Runner{
		Tools:     make(map[string]bool),
		Responses: make(map[string]Response),
	}
	for _, tool := range tools {
		r.Tools[tool] = true
	}
	return r
}

// On scripts the response for a command line or command name
func (r *Runner) On(command string, output string, err error) *Runner {
	r.Responses[command] = Response{Output: []byte(output), Err: err}
	return r
}

// LookPath resolves a tool if it was registered
func (r *Runner) LookPath(file string) (string, error) {
	if r.Tools[file] {
		return "/usr/bin/" + file, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Run records the call and returns the scripted response
func (r *Runner) Run(name string, args ...string) ([]byte, error) {
	return r.RunInput(nil, name, args...)
}

// RunInput records the call and returns the scripted response
func (r *Runner) RunInput(input []byte, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Input: input}
	r.Calls = append(r.Calls, call)

	if resp, ok := r.Responses[call.String()]; ok {
		return resp.Output, resp.Err
	}
	if resp, ok := r.Responses[name]; ok {
		return resp.Output, resp.Err
	}
	return nil, nil
}

// CallsTo returns all recorded calls of the named command
func (r *Runner) CallsTo(name string) []Call {
	var calls []Call
	for _, c := range r.Calls {
		if c.Name == name {
			calls = append(calls, c)
		}
	}
	return calls
}

// Failure builds an error resembling a non-zero exit
func Failure(format string, args ...any) error {
	return fmt.Errorf("exit status 1: "+format, args...)
}
