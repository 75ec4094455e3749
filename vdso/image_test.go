// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetForGapToNextSymbol(t *testing.T) {
	addrs := []uintptr{0x1000, 0x1010, 0x1010, 0x1040} // 0x1010 aliased twice
	regionEnd := uintptr(0x2000)

	assert.Equal(t, 0x10, budgetFor(0x1000, addrs, regionEnd))
	assert.Equal(t, 0x30, budgetFor(0x1010, addrs, regionEnd), "aliases at the same address share a budget")
	assert.Equal(t, int(regionEnd-0x1040), budgetFor(0x1040, addrs, regionEnd), "last symbol's budget runs to region end")
}

func TestBudgetForSingleSymbol(t *testing.T) {
	addrs := []uintptr{0x3000}
	assert.Equal(t, 0x1000, budgetFor(0x3000, addrs, 0x4000))
}

// TestResolveSymbolsAgainstLiveVDSO exercises the ELF-parsing path against
// the actual vDSO of whatever host runs the test, skipping gracefully where
// no vDSO is available (e.g. inside some sandboxes and CI runners).
func TestResolveSymbolsAgainstLiveVDSO(t *testing.T) {
	r, err := LocateVDSO()
	if err != nil {
		t.Skipf("no vdso on this host: %v", err)
	}
	require.True(t, r.End > r.Start)

	view := newView(r)
	arch, err := archForGOARCH()
	if err != nil {
		t.Skipf("unsupported architecture: %v", err)
	}

	names := make(map[string]struct{})
	for _, n := range TimeSymbolNames(arch) {
		names[n] = struct{}{}
	}
	resolved, err := ResolveSymbols(view, names)
	require.NoError(t, err)
	require.NotEmpty(t, resolved, "expected at least one canonical time symbol in the live vdso")

	for name, desc := range resolved {
		assert.GreaterOrEqual(t, desc.Addr, r.Start, "symbol %q address before region start", name)
		assert.Less(t, desc.Addr, r.End, "symbol %q address past region end", name)
		assert.Greater(t, desc.Budget, 0, "symbol %q has non-positive budget", name)
	}
}
