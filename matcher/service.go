package matcher

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strings"
)

var ipv4Pattern = regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})`)

// Service implements the Matcher interface
type Service struct {
	marker         string
	whitelistedIPs map[string]bool // Map for O(1) lookup
}

// NewService creates a new Service using the default whitelist
func NewService() *Service {
	return NewServiceWithWhitelist(Whitelist)
}

// NewServiceWithWhitelist creates a new Service with a custom whitelist
func NewServiceWithWhitelist(whitelist []string) *Service {
	service := &Service{
		marker:         FailureMarker,
		whitelistedIPs: make(map[string]bool, len(whitelist)),
	}

	for _, ip := range whitelist {
		service.whitelistedIPs[ip] = true
	}

	return service
}

// MatchLine extracts the first IPv4-shaped token of a line containing the failure marker
func (s *Service) MatchLine(line string) (string, bool) {
	if !strings.Contains(line, s.marker) {
		return "", false
	}

	ip := ipv4Pattern.FindString(line)
	if ip == "" {
		return "", false
	}
	return ip, true
}

// Tally counts failed logins per source address
func (s *Service) Tally(r io.Reader) (map[string]uint, error) {
	counts := make(map[string]uint)

	sc := bufio.NewScanner(r)
	// auth logs occasionally carry very long lines
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if ip, ok := s.MatchLine(sc.Text()); ok {
			counts[ip]++
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// IsWhitelisted checks if an IP is in the whitelist
func (s *Service) IsWhitelisted(ip string) bool {
	return s.whitelistedIPs[ip]
}

// Attempts flattens a tally into records sorted by address
func Attempts(counts map[string]uint) []Attempt {
	attempts := make([]Attempt, 0, len(counts))
	for ip, count := range counts {
		attempts = append(attempts, Attempt{IP: ip, Count: count})
	}

	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].IP < attempts[j].IP
	})
	return attempts
}
