package storage

// Storage defines the interface for the persisted set of blocked IPs.
// The set is append-only: entries are never removed.
type Storage interface {
	// IsIPBlocked checks if an IP has been recorded as blocked
	IsIPBlocked(ip string) bool

	// BlockIP records an IP as blocked
	BlockIP(ip string) error

	// GetBlockedIPs returns all blocked IPs in the order they were recorded
	GetBlockedIPs() []string

	// Storage management
	Load() error
	Close() error
}
