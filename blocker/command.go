package blocker

import (
	"errors"
	"fmt"

	"github.com/google/shlex"

	"github.com/headswim/portguard/runner"
)

// Command implements the Blocker interface by running a configured
// iptables command line, e.g. "iptables" or "sudo iptables".
type Command struct {
	runner  runner.Runner
	command []string
	table   string
	chain   string
	target  string
}

// NewCommand creates a new Command blocker
func NewCommand(r runner.Runner, commandLine, table, chain, target string) (*Command, error) {
	command, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("invalid firewall command %q: %w", commandLine, err)
	}
	if len(command) == 0 {
		return nil, errors.New("firewall command must not be empty")
	}

	return &Command{
		runner:  r,
		command: command,
		table:   table,
		chain:   chain,
		target:  target,
	}, nil
}

// Block appends a drop rule for an IP
func (b *Command) Block(ip string) (*BlockResult, error) {
	result := &BlockResult{
		IP:   ip,
		Rule: RuleSpec(ip, b.target),
	}

	args := b.args("-A", result.Rule)
	if _, err := b.runner.Run(b.command[0], args...); err != nil {
		result.Error = fmt.Errorf("failed to block IP %s with iptables: %w", ip, err)
		return result, result.Error
	}
	return result, nil
}

// Restore appends the drop rule for an IP unless "-C" reports it present
func (b *Command) Restore(ip string) (*BlockResult, error) {
	rule := RuleSpec(ip, b.target)

	if _, err := b.runner.Run(b.command[0], b.args("-C", rule)...); err == nil {
		return &BlockResult{IP: ip, Rule: rule, Existed: true}, nil
	}

	return b.Block(ip)
}

// args builds the arguments following the command name
func (b *Command) args(op string, rule []string) []string {
	args := append([]string{}, b.command[1:]...)
	if b.table != "" && b.table != "filter" {
		args = append(args, "-t", b.table)
	}
	args = append(args, op, b.chain)
	return append(args, rule...)
}
