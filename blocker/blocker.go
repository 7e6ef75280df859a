package blocker

// BlockResult represents the result of a block operation
type BlockResult struct {
	IP string
	// Rule is the rule specification that was (or would have been) appended
	Rule []string
	// Existed is set by Restore when the rule was already present
	Existed bool
	Error   error
}

// Blocker defines the interface for installing firewall drop rules
type Blocker interface {
	// Block appends a rule dropping all inbound traffic from an IP
	Block(ip string) (*BlockResult, error)

	// Restore appends the drop rule for an IP unless it is already present
	Restore(ip string) (*BlockResult, error)
}

// RuleSpec returns the rule specification dropping traffic from an IP
func RuleSpec(ip, target string) []string {
	return []string{"-s", ip, "-j", target}
}
