// Package portguard reports the listening ports of a host by mail and blocks
// source addresses with repeated failed logins using firewall drop rules.
package portguard

import (
	"log/slog"

	"github.com/headswim/portguard/config"
	"github.com/headswim/portguard/guard"
	"github.com/headswim/portguard/logging"
	"github.com/headswim/portguard/matcher"
	"github.com/headswim/portguard/runner"
)

// New creates a new guard with default configuration
func New() (*guard.Guard, error) {
	return NewWithConfig(config.DefaultConfig())
}

// NewWithConfig creates a new guard with custom configuration, logging to stderr
func NewWithConfig(cfg config.Config) (*guard.Guard, error) {
	if err := config.ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(level)

	return NewWithLogger(cfg, logger)
}

// NewWithLogger creates a new guard with custom configuration and logger
func NewWithLogger(cfg config.Config, logger *slog.Logger) (*guard.Guard, error) {
	if err := config.ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	opts := guard.Options{
		Config:  cfg,
		Runner:  runner.NewExecRunner(),
		Matcher: matcher.NewServiceWithWhitelist(cfg.Whitelist),
		Logger:  logger,
	}

	return guard.New(opts)
}

// RestoreBlocks re-applies the firewall rules of all recorded addresses.
// This should be called at boot to ensure blocks persist across restarts.
func RestoreBlocks(cfg config.Config) (*guard.RestoreSummary, error) {
	g, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return g.RestoreBlocks()
}

// Expose important types from subpackages
type (
	// Config represents the configuration for portguard
	Config = config.Config

	// Guard runs the port report and the login-attempt blocker
	Guard = guard.Guard

	// BlockSummary represents the result of a blocking run
	BlockSummary = guard.BlockSummary

	// Attempt represents the failed logins of one address
	Attempt = matcher.Attempt
)
