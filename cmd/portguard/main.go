package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/headswim/portguard"
	"github.com/headswim/portguard/config"
	"github.com/headswim/portguard/guard"
	"github.com/headswim/portguard/logging"
)

var (
	configFile  string
	storageDir  string
	email       string
	reportFile  string
	blockedFile string
	authLog     string
	threshold   uint
	logLevel    string

	g *guard.Guard
)

var rootCmd = &cobra.Command{
	Use:   "portguard",
	Short: "Mails a report of listening ports and blocks brute-force login sources",
	Long: `portguard runs two housekeeping stages on this host:

  1. List the listening TCP/UDP sockets (ss, falling back to netstat),
     write them to the report file and mail the report.
  2. Count "Failed password" lines per source address in the auth log and
     add an iptables DROP rule for every address reaching the threshold
     that is not yet recorded in the blocked IPs file.

Without a subcommand both stages run.`,
	PersistentPreRunE: setup,
	RunE:              runAll,
	SilenceUsage:      true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&storageDir, "storage-dir", "", "directory for the report and blocked IPs files")
	flags.StringVar(&email, "email", "", "report sender and recipient address")
	flags.StringVar(&reportFile, "report-file", "", "port report and block event log")
	flags.StringVar(&blockedFile, "blocked-file", "", "file recording blocked IPs, one per line")
	flags.StringVar(&authLog, "auth-log", "", "authentication log to scan")
	flags.UintVar(&threshold, "threshold", 0, "failed logins before an address is blocked")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and creates the guard
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	g, err = portguard.NewWithLogger(cfg, logging.Setup(level))
	if err != nil {
		return fmt.Errorf("failed to set up: %w", err)
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("storage-dir") {
		cfg = cfg.WithStorageDir(storageDir)
	}
	if flags.Changed("email") {
		cfg.Email = email
	}
	if flags.Changed("report-file") {
		cfg.ReportFile = reportFile
	}
	if flags.Changed("blocked-file") {
		cfg.BlockedIPsFile = blockedFile
	}
	if flags.Changed("auth-log") {
		cfg.AuthLogFile = authLog
	}
	if flags.Changed("threshold") {
		cfg.Threshold = threshold
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	return cfg, config.ValidateConfig(&cfg)
}

func runAll(*cobra.Command, []string) error {
	return g.Run()
}
