package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headswim/portguard/matcher"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	return cmd
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "portguard.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("email: file@example.org\nthreshold: 7\n"), 0o644))

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--config", cfgPath,
		"--storage-dir", dir,
		"--threshold", "3",
		"--auth-log", "/tmp/secure",
	}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "file@example.org", cfg.Email)
	assert.Equal(t, uint(3), cfg.Threshold)
	assert.Equal(t, "/tmp/secure", cfg.AuthLogFile)
	assert.Equal(t, filepath.Join(dir, "blocked_ips.log"), cfg.BlockedIPsFile)
	assert.Equal(t, filepath.Join(dir, "port_scan.log"), cfg.ReportFile)
}

func TestPrintAttempts(t *testing.T) {
	var buf bytes.Buffer
	err := printAttempts(&buf, []matcher.Attempt{
		{IP: "10.0.0.1", Count: 6},
		{IP: "10.0.0.2", Count: 3},
	}, 5)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "10.0.0.1")
	assert.Contains(t, lines[1], "over threshold")
	assert.NotContains(t, lines[2], "over threshold")
}
