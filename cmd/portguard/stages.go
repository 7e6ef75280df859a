package main

import (
	"github.com/spf13/cobra"
)

var (
	runCmd = &cobra.Command{
		Use:          "run",
		Short:        "Run the port report and the login-attempt blocker",
		RunE:         runAll,
		SilenceUsage: true,
	}
	portsCmd = &cobra.Command{
		Use:          "ports",
		Short:        "Write and mail the report of listening ports",
		RunE:         reportPorts,
		SilenceUsage: true,
	}
	blockCmd = &cobra.Command{
		Use:          "block",
		Short:        "Block addresses with too many failed logins",
		RunE:         blockAttackers,
		SilenceUsage: true,
	}
	restoreCmd = &cobra.Command{
		Use:          "restore",
		Short:        "Re-apply the firewall rules of all recorded addresses",
		RunE:         restoreBlocks,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(restoreCmd)
}

func reportPorts(*cobra.Command, []string) error {
	return g.ReportPorts()
}

func blockAttackers(*cobra.Command, []string) error {
	_, err := g.BlockAttackers()
	return err
}

func restoreBlocks(*cobra.Command, []string) error {
	_, err := g.RestoreBlocks()
	return err
}
