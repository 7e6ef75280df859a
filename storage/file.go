package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// FileStorage implements the Storage interface with a plain text file
// holding one address per line
type FileStorage struct {
	blockedIPsFile string
	blockedIPs     map[string]bool
	order          []string
	file           *os.File
	// unterminated is set when the file does not end in a newline
	unterminated   bool
}

// NewFileStorage opens the blocked IPs file, creating it if absent, and loads it
func NewFileStorage(blockedIPsFile string) (*FileStorage, error) {
	storage := &FileStorage{
		blockedIPsFile: blockedIPsFile,
		blockedIPs:     make(map[string]bool),
	}

	file, err := os.OpenFile(blockedIPsFile, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open blocked IPs file: %w", err)
	}
	storage.file = file

	if err := storage.Load(); err != nil {
		_ = file.Close()
		return nil, err
	}

	return storage, nil
}

// IsIPBlocked checks if an IP has been recorded as blocked.
// Membership is an exact string match on the stored address.
func (s *FileStorage) IsIPBlocked(ip string) bool {
	return s.blockedIPs[ip]
}

// BlockIP appends an IP to the blocked IPs file
func (s *FileStorage) BlockIP(ip string) error {
	if s.blockedIPs[ip] {
		return nil
	}

	line := ip + "\n"
	if s.unterminated {
		line = "\n" + line
	}
	if _, err := s.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to record blocked IP %s: %w", ip, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to record blocked IP %s: %w", ip, err)
	}

	s.unterminated = false
	s.blockedIPs[ip] = true
	s.order = append(s.order, ip)
	return nil
}

// GetBlockedIPs returns all blocked IPs in file order
func (s *FileStorage) GetBlockedIPs() []string {
	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Load loads the blocked IPs from disk
func (s *FileStorage) Load() error {
	data, err := os.ReadFile(s.blockedIPsFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, initialize with empty data
			s.blockedIPs = make(map[string]bool)
			s.order = nil
			s.unterminated = false
			return nil
		}
		return fmt.Errorf("failed to read blocked IPs file: %w", err)
	}

	s.blockedIPs = make(map[string]bool)
	s.order = nil
	s.unterminated = len(data) > 0 && data[len(data)-1] != '\n'

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		ip := strings.TrimSpace(sc.Text())
		if ip == "" || s.blockedIPs[ip] {
			continue
		}
		s.blockedIPs[ip] = true
		s.order = append(s.order, ip)
	}

	return sc.Err()
}

// Close closes the storage
func (s *FileStorage) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
