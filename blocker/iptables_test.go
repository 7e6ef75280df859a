package blocker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	rules     []string
	appendErr error
	existsErr error
}

func (f *fakeTable) key(table, chain string, rulespec []string) string {
	return table + "/" + chain + " " + strings.Join(rulespec, " ")
}

func (f *fakeTable) Append(table, chain string, rulespec ...string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rules = append(f.rules, f.key(table, chain, rulespec))
	return nil
}

func (f *fakeTable) Exists(table, chain string, rulespec ...string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	k := f.key(table, chain, rulespec)
	for _, r := range f.rules {
		if r == k {
			return true, nil
		}
	}
	return false, nil
}

func TestIPTablesBlock(t *testing.T) {
	tbl := &fakeTable{}
	b := newIPTables(tbl, "filter", "INPUT", "DROP")

	result, err := b.Block("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", result.IP)
	assert.Equal(t, []string{"-s", "10.0.0.1", "-j", "DROP"}, result.Rule)
	assert.Equal(t, []string{"filter/INPUT -s 10.0.0.1 -j DROP"}, tbl.rules)
}

func TestIPTablesBlockFailure(t *testing.T) {
	tbl := &fakeTable{appendErr: errors.New("Permission denied (you must be root)")}
	b := newIPTables(tbl, "filter", "INPUT", "DROP")

	result, err := b.Block("10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, err, result.Error)
	assert.Contains(t, err.Error(), "10.0.0.1")
	assert.Contains(t, err.Error(), "Permission denied")
}

func TestIPTablesRestore(t *testing.T) {
	tbl := &fakeTable{}
	b := newIPTables(tbl, "filter", "INPUT", "DROP")

	result, err := b.Restore("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Existed)

	result, err = b.Restore("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Existed)
	assert.Len(t, tbl.rules, 1)
}

func TestIPTablesRestoreCheckFailure(t *testing.T) {
	tbl := &fakeTable{existsErr: errors.New("iptables: Bad rule")}
	b := newIPTables(tbl, "filter", "INPUT", "DROP")

	_, err := b.Restore("10.0.0.1")
	require.Error(t, err)
	assert.Empty(t, tbl.rules)
}
