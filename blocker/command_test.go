package blocker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headswim/portguard/runner/runnertest"
)

func TestCommandBlock(t *testing.T) {
	r := runnertest.New("iptables")
	b, err := NewCommand(r, "iptables", "filter", "INPUT", "DROP")
	require.NoError(t, err)

	_, err = b.Block("10.0.0.1")
	require.NoError(t, err)

	require.Len(t, r.Calls, 1)
	assert.Equal(t, "iptables -A INPUT -s 10.0.0.1 -j DROP", r.Calls[0].String())
}

func TestCommandBlockWithPrefixAndTable(t *testing.T) {
	r := runnertest.New("sudo")
	b, err := NewCommand(r, "sudo 'iptables'", "raw", "PREROUTING", "DROP")
	require.NoError(t, err)

	_, err = b.Block("10.0.0.1")
	require.NoError(t, err)

	require.Len(t, r.Calls, 1)
	assert.Equal(t, "sudo", r.Calls[0].Name)
	assert.Equal(t, []string{"iptables", "-t", "raw", "-A", "PREROUTING", "-s", "10.0.0.1", "-j", "DROP"}, r.Calls[0].Args)
}

func TestCommandBlockFailure(t *testing.T) {
	r := runnertest.New("iptables").
		On("iptables -A INPUT -s 10.0.0.1 -j DROP", "", runnertest.Failure("chain missing"))
	b, err := NewCommand(r, "iptables", "filter", "INPUT", "DROP")
	require.NoError(t, err)

	result, err := b.Block("10.0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to block IP 10.0.0.1")
	assert.Equal(t, err, result.Error)
}

func TestCommandRestore(t *testing.T) {
	r := runnertest.New("iptables").
		On("iptables -C INPUT -s 10.0.0.1 -j DROP", "", nil).
		On("iptables -C INPUT -s 10.0.0.2 -j DROP", "", runnertest.Failure("Bad rule"))
	b, err := NewCommand(r, "iptables", "filter", "INPUT", "DROP")
	require.NoError(t, err)

	result, err := b.Restore("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Existed)

	result, err = b.Restore("10.0.0.2")
	require.NoError(t, err)
	assert.False(t, result.Existed)

	var commands []string
	for _, c := range r.Calls {
		commands = append(commands, c.String())
	}
	assert.Equal(t, []string{
		"iptables -C INPUT -s 10.0.0.1 -j DROP",
		"iptables -C INPUT -s 10.0.0.2 -j DROP",
		"iptables -A INPUT -s 10.0.0.2 -j DROP",
	}, commands)
}

func TestNewCommandInvalid(t *testing.T) {
	_, err := NewCommand(runnertest.New(), "", "filter", "INPUT", "DROP")
	assert.Error(t, err)

	_, err = NewCommand(runnertest.New(), `iptables "unterminated`, "filter", "INPUT", "DROP")
	assert.Error(t, err)
}
