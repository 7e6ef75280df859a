package reporter

import (
	"fmt"
	"syscall"

	psnet "github.com/shirou/gopsutil/net"
)

// NativeLister reads the socket table in-process through gopsutil
type NativeLister struct {
	connections func(kind string) ([]psnet.ConnectionStat, error)
}

// NewNativeLister creates a new NativeLister
func NewNativeLister() *NativeLister {
	return &NativeLister{connections: psnet.Connections}
}

// Name returns the name of the lister
func (l *NativeLister) Name() string {
	return "native"
}

// Lines renders one line per socket in the style of "ss -tuln"
func (l *NativeLister) Lines() ([]string, error) {
	conns, err := l.connections("inet")
	if err != nil {
		return nil, fmt.Errorf("failed to read socket table: %w", err)
	}

	lines := make([]string, 0, len(conns))
	for _, c := range conns {
		status := c.Status
		if status == "" || status == "NONE" {
			status = "UNCONN"
		}
		lines = append(lines, fmt.Sprintf("%-5s %-10s %s %s pid=%d",
			netID(c), status, formatAddr(c.Family, c.Laddr), formatAddr(c.Family, c.Raddr), c.Pid))
	}
	return lines, nil
}

func netID(c psnet.ConnectionStat) string {
	proto := "tcp"
	if c.Type == syscall.SOCK_DGRAM {
		proto = "udp"
	}
	if c.Family == syscall.AF_INET6 {
		proto += "6"
	}
	return proto
}

func formatAddr(family uint32, addr psnet.Addr) string {
	ip := addr.IP
	if ip == "" {
		ip = "*"
	}
	if family == syscall.AF_INET6 && ip != "*" {
		return fmt.Sprintf("[%s]:%d", ip, addr.Port)
	}
	return fmt.Sprintf("%s:%d", ip, addr.Port)
}
