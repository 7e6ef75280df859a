package matcher

import "io"

// FailureMarker is the literal text identifying a failed login line
const FailureMarker = "Failed password"

// Attempt is the number of failed logins seen from one source address
type Attempt struct {
	IP    string
	Count uint
}

// Matcher defines the interface for auth log matching
type Matcher interface {
	// MatchLine returns the source address of a failed login line
	MatchLine(line string) (ip string, ok bool)

	// Tally counts failed logins per source address
	Tally(r io.Reader) (map[string]uint, error)

	// IsWhitelisted checks if an IP is in the whitelist
	IsWhitelisted(ip string) bool
}
