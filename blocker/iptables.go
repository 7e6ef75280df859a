package blocker

import (
	"fmt"

	"github.com/coreos/go-iptables/iptables"
)

// ruleTable is the subset of *iptables.IPTables used by the blocker
type ruleTable interface {
	Append(table, chain string, rulespec ...string) error
	Exists(table, chain string, rulespec ...string) (bool, error)
}

// IPTables implements the Blocker interface with coreos/go-iptables,
// which drives the iptables binary.
type IPTables struct {
	ipt    ruleTable
	table  string
	chain  string
	target string
}

// NewIPTables creates a new IPTables blocker for IPv4 rules
func NewIPTables(table, chain, target string) (*IPTables, error) {
	ipt, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	if err != nil {
		return nil, fmt.Errorf("failed to get iptables access: %w", err)
	}
	return newIPTables(ipt, table, chain, target), nil
}

func newIPTables(ipt ruleTable, table, chain, target string) *IPTables {
	return &IPTables{
		ipt:    ipt,
		table:  table,
		chain:  chain,
		target: target,
	}
}

// Block appends a drop rule for an IP
func (b *IPTables) Block(ip string) (*BlockResult, error) {
	result := &BlockResult{
		IP:   ip,
		Rule: RuleSpec(ip, b.target),
	}

	if err := b.ipt.Append(b.table, b.chain, result.Rule...); err != nil {
		result.Error = fmt.Errorf("failed to block IP %s with iptables: %w", ip, err)
		return result, result.Error
	}
	return result, nil
}

// Restore appends the drop rule for an IP unless it already exists
func (b *IPTables) Restore(ip string) (*BlockResult, error) {
	result := &BlockResult{
		IP:   ip,
		Rule: RuleSpec(ip, b.target),
	}

	exists, err := b.ipt.Exists(b.table, b.chain, result.Rule...)
	if err != nil {
		result.Error = fmt.Errorf("failed to check rule for IP %s with iptables: %w", ip, err)
		return result, result.Error
	}
	if exists {
		result.Existed = true
		return result, nil
	}

	return b.Block(ip)
}
