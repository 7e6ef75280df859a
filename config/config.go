package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Port listing sources
const (
	PortSourceAuto    = "auto"
	PortSourceSS      = "ss"
	PortSourceNetstat = "netstat"
	PortSourceNative  = "native"
)

// Firewall and mail backends
const (
	BackendIPTables = "iptables"
	BackendCommand  = "command"
	BackendSMTP     = "smtp"
)

// FirewallConfig configures how drop rules are installed
type FirewallConfig struct {
	Backend string `yaml:"backend"`
	Command string `yaml:"command"` // used by the command backend, e.g. "sudo iptables"
	Table   string `yaml:"table"`
	Chain   string `yaml:"chain"`
	Target  string `yaml:"target"`
}

// MailConfig configures how the port report is delivered
type MailConfig struct {
	Backend  string `yaml:"backend"`
	SMTPAddr string `yaml:"smtp_addr"`
	Command  string `yaml:"command"`
}

// Config holds the configuration for portguard
type Config struct {
	Email          string         `yaml:"email"`
	ReportFile     string         `yaml:"report_file"`
	BlockedIPsFile string         `yaml:"blocked_ips_file"`
	AuthLogFile    string         `yaml:"auth_log_file"`
	Threshold      uint           `yaml:"threshold"`
	RequiredTools  []string       `yaml:"required_tools"`
	Whitelist      []string       `yaml:"whitelist"`
	PortSource     string         `yaml:"port_source"`
	Firewall       FirewallConfig `yaml:"firewall"`
	Mail           MailConfig     `yaml:"mail"`
	LogLevel       string         `yaml:"log_level"`
	StorageDir     string         `yaml:"storage_dir"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Email:          "admin@example.com",
		ReportFile:     "/var/log/port_scan.log",
		BlockedIPsFile: "/var/log/blocked_ips.log",
		AuthLogFile:    "/var/log/auth.log",
		Threshold:      5, // failed attempts before blocking
		RequiredTools:  []string{"ss", "iptables", "mail"},
		Whitelist:      []string{},
		PortSource:     PortSourceAuto,
		Firewall: FirewallConfig{
			Backend: BackendIPTables,
			Command: "iptables",
			Table:   "filter",
			Chain:   "INPUT",
			Target:  "DROP",
		},
		Mail: MailConfig{
			Backend:  BackendSMTP,
			SMTPAddr: "localhost:25",
			Command:  "mail",
		},
		LogLevel:   "info",
		StorageDir: "/var/log",
	}
}

// Load reads a YAML configuration file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, ValidateConfig(&cfg)
}

// ValidateConfig validates the configuration and sets defaults for missing values
func ValidateConfig(cfg *Config) error {
	defaults := DefaultConfig()

	if cfg.Email == "" {
		return errors.New("email address must not be empty")
	}
	if cfg.ReportFile == "" {
		cfg.ReportFile = defaults.ReportFile
	}
	if cfg.BlockedIPsFile == "" {
		cfg.BlockedIPsFile = defaults.BlockedIPsFile
	}
	if cfg.AuthLogFile == "" {
		cfg.AuthLogFile = defaults.AuthLogFile
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = defaults.Threshold
	}

	cfg.PortSource = strings.ToLower(cfg.PortSource)
	switch cfg.PortSource {
	case "":
		cfg.PortSource = PortSourceAuto
	case PortSourceAuto, PortSourceSS, PortSourceNetstat, PortSourceNative:
	default:
		return fmt.Errorf("unsupported port source: %s", cfg.PortSource)
	}

	if cfg.Firewall.Backend == "" {
		cfg.Firewall.Backend = defaults.Firewall.Backend
	}
	if cfg.Firewall.Backend != BackendIPTables && cfg.Firewall.Backend != BackendCommand {
		return fmt.Errorf("unsupported firewall backend: %s", cfg.Firewall.Backend)
	}
	if cfg.Firewall.Command == "" {
		cfg.Firewall.Command = defaults.Firewall.Command
	}
	if cfg.Firewall.Table == "" {
		cfg.Firewall.Table = defaults.Firewall.Table
	}
	if cfg.Firewall.Chain == "" {
		cfg.Firewall.Chain = defaults.Firewall.Chain
	}
	if cfg.Firewall.Target == "" {
		cfg.Firewall.Target = defaults.Firewall.Target
	}

	if cfg.Mail.Backend == "" {
		cfg.Mail.Backend = defaults.Mail.Backend
	}
	if cfg.Mail.Backend != BackendSMTP && cfg.Mail.Backend != BackendCommand {
		return fmt.Errorf("unsupported mail backend: %s", cfg.Mail.Backend)
	}
	if cfg.Mail.SMTPAddr == "" {
		cfg.Mail.SMTPAddr = defaults.Mail.SMTPAddr
	}
	if cfg.Mail.Command == "" {
		cfg.Mail.Command = defaults.Mail.Command
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "."
	}

	return nil
}

// WithStorageDir sets a custom storage directory and updates file paths
func (c Config) WithStorageDir(dir string) Config {
	c.StorageDir = dir
	c.ReportFile = filepath.Join(dir, filepath.Base(c.ReportFile))
	c.BlockedIPsFile = filepath.Join(dir, filepath.Base(c.BlockedIPsFile))
	return c
}
