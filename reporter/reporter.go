// Package reporter lists the listening sockets of the host and renders the
// port report that is written to disk and mailed to the operator.
package reporter

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/headswim/portguard/config"
	"github.com/headswim/portguard/runner"
)

// TimeFormat is used for the report header and block events
const TimeFormat = "2006-01-02 15:04:05"

// ListenMarker identifies listening sockets in the tool output
const ListenMarker = "LISTEN"

// ErrNoListingTool is returned when no socket-listing tool is available
var ErrNoListingTool = errors.New("no socket listing tool available")

// Lister produces the raw socket table, one socket per line
type Lister interface {
	Name() string
	Lines() ([]string, error)
}

// CommandLister lists sockets by running an external tool
type CommandLister struct {
	runner runner.Runner
	tool   string
	args   []string
}

// NewCommandLister creates a lister running "<tool> -tuln"
func NewCommandLister(r runner.Runner, tool string) *CommandLister {
	return &CommandLister{
		runner: r,
		tool:   tool,
		args:   []string{"-tuln"},
	}
}

// Name returns the command line of the lister
func (l *CommandLister) Name() string {
	return runner.CommandLine(l.tool, l.args...)
}

// Lines runs the tool and splits its output into lines
func (l *CommandLister) Lines() ([]string, error) {
	output, err := l.runner.Run(l.tool, l.args...)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(string(output), "\n"), "\n"), nil
}

// SelectLister picks the lister for a configured source. The auto source
// prefers ss and falls back to netstat when ss is not installed.
func SelectLister(r runner.Runner, source string) (Lister, error) {
	switch source {
	case config.PortSourceSS, config.PortSourceNetstat:
		return NewCommandLister(r, source), nil
	case config.PortSourceNative:
		return NewNativeLister(), nil
	case config.PortSourceAuto, "":
		for _, tool := range []string{"ss", "netstat"} {
			if _, err := r.LookPath(tool); err == nil {
				return NewCommandLister(r, tool), nil
			}
		}
		return nil, ErrNoListingTool
	default:
		return nil, fmt.Errorf("unsupported port source: %s", source)
	}
}

// FilterListening keeps the lines describing listening sockets, in order
func FilterListening(lines []string) []string {
	var listening []string
	for _, line := range lines {
		if strings.Contains(line, ListenMarker) {
			listening = append(listening, line)
		}
	}
	return listening
}

// Report is the port listing written to the report file
type Report struct {
	Date  time.Time
	Lines []string
}

// NewReport creates a report of the listening lines
func NewReport(date time.Time, lines []string) *Report {
	return &Report{
		Date:  date,
		Lines: lines,
	}
}

// String renders the report with its header
func (r *Report) String() string {
	var b strings.Builder
	b.WriteString("Scanning TCP ports...\n")
	fmt.Fprintf(&b, "Date: %s\n", r.Date.Format(TimeFormat))
	b.WriteString("------------------------\n")
	for _, line := range r.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Write overwrites the report file with the report
func (r *Report) Write(path string) error {
	if err := os.WriteFile(path, []byte(r.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// AppendBlockEvent appends a block event line to the report file
func AppendBlockEvent(path, ip string, at time.Time) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}

	_, err = fmt.Fprintf(f, "Blocked IP %s at %s\n", ip, at.Format(TimeFormat))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to record block of %s: %w", ip, err)
	}
	return nil
}
