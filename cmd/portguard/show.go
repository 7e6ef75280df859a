package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/headswim/portguard/matcher"
)

var (
	blockedCmd = &cobra.Command{
		Use:          "blocked",
		Short:        "Print the recorded blocked addresses",
		RunE:         showBlocked,
		SilenceUsage: true,
	}
	attemptsCmd = &cobra.Command{
		Use:          "attempts",
		Short:        "Print failed logins per address from the auth log",
		RunE:         showAttempts,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(blockedCmd)
	rootCmd.AddCommand(attemptsCmd)
}

func showBlocked(cmd *cobra.Command, _ []string) error {
	ips, err := g.BlockedIPs()
	if err != nil {
		return err
	}

	for _, ip := range ips {
		fmt.Fprintln(cmd.OutOrStdout(), ip)
	}
	return nil
}

func showAttempts(cmd *cobra.Command, _ []string) error {
	counts, err := g.Tally()
	if err != nil {
		return err
	}

	return printAttempts(cmd.OutOrStdout(), matcher.Attempts(counts), g.Threshold())
}

func printAttempts(w io.Writer, attempts []matcher.Attempt, threshold uint) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tATTEMPTS\t")
	for _, a := range attempts {
		mark := ""
		if a.Count >= threshold {
			mark = "over threshold"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", a.IP, a.Count, mark)
	}
	return tw.Flush()
}
