// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager installs and restores vDSO redirections for one process. The zero
// value is not usable; construct with NewManager.
//
// A Manager owns a process-wide resource (the vDSO mapping) and process-wide
// mutable state (the set of currently-installed patches), so its exported
// methods are safe for concurrent use: every Install/Restore/RestoreAll call
// serializes on mu. Concurrent calls against overlapping symbol names are
// serialized, not merged. The lock does not coordinate with threads executing
// the patched symbol: a thread inside it during the write may run the
// original bytes, the stub, or a partially written mix of both.
type Manager struct {
	logger *zap.Logger
	arch   Arch

	once     sync.Once
	initErr  error
	view     View
	resolved map[string]SymbolDescriptor

	mu      sync.Mutex
	records map[string]*PatchRecord
	order   []string // install order, for RestoreAll's reverse-order guarantee

	installed atomic.Uint32 // observability only; never consulted for correctness
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger routes the Manager's Debug/Warn events to logger instead
// of a no-op sink.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithArch forces the architecture tag instead of deriving it from
// runtime.GOARCH. Intended for tests that want to exercise both stub shapes
// from a single build.
func WithArch(arch Arch) Option {
	return func(m *Manager) { m.arch = arch }
}

// NewManager returns a Manager ready to Install/Restore against the calling
// process's own vDSO. Locating the vDSO and resolving its symbol table is
// deferred to the first Install/ListSymbols call, so constructing a Manager
// that is never used never touches /proc.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:  nopLogger(),
		arch:    archUnset,
		records: make(map[string]*PatchRecord),
	}
	if arch, err := archForGOARCH(); err == nil {
		m.arch = arch
	}
	for _, opt := range opts {
		opt(m)
	}
	// An unsupported GOARCH with no WithArch override is reported lazily,
	// from ensureResolved, so constructing a Manager never itself fails.
	return m
}

// ensureResolved performs the one-shot vDSO lookup and full symbol-table
// resolution, caching the result for the Manager's lifetime.
func (m *Manager) ensureResolved() error {
	m.once.Do(func() {
		if m.arch != ArchAMD64 && m.arch != ArchARM64 {
			m.initErr = wrapf(ErrUnsupportedArchitecture, "ensureResolved: no architecture selected")
			return
		}

		r, err := LocateVDSO()
		if err != nil {
			m.initErr = err
			return
		}
		m.view = newView(r)

		names := make(map[string]struct{})
		for _, n := range TimeSymbolNames(m.arch) {
			names[n] = struct{}{}
		}
		resolved, err := ResolveSymbols(m.view, names)
		if err != nil {
			m.initErr = err
			return
		}
		m.resolved = resolved
		m.logger.Debug("resolved vdso", zap.Stringer("range", m.view.Range), zap.Int("symbols", len(resolved)))
	})
	return m.initErr
}

// ListSymbols returns the subset of the architecture's canonical time
// symbols that are present in the located vDSO and large enough to hold a
// stub. A host without a vDSO reports an empty list rather than an error;
// Install is where a missing vDSO becomes a hard failure.
func (m *Manager) ListSymbols() []string {
	if err := m.ensureResolved(); err != nil {
		return nil
	}
	stubLen := StubLen(m.arch)
	var names []string
	for _, n := range TimeSymbolNames(m.arch) {
		desc, ok := m.resolved[n]
		if !ok || desc.Budget < stubLen {
			continue
		}
		names = append(names, n)
	}
	return names
}

// Install redirects symbolName to target, returning the record needed to
// later Restore it.
func (m *Manager) Install(symbolName string, target uintptr) (*PatchRecord, error) {
	if err := m.ensureResolved(); err != nil {
		return nil, err
	}

	desc, ok := m.resolved[symbolName]
	if !ok {
		return nil, wrapf(ErrSymbolMissing, "Install(%q)", symbolName)
	}

	stubLen := StubLen(m.arch)
	if desc.Budget < stubLen {
		return nil, wrapf(ErrBudgetTooSmall, "Install(%q): budget %d < stub length %d", symbolName, desc.Budget, stubLen)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[symbolName]; ok {
		return nil, wrapf(ErrAlreadyInstalled, "Install(%q)", symbolName)
	}
	// Dedupe by address: an alias sharing a prologue with an
	// already-installed symbol is a second name for the same patch, not a
	// distinct one.
	for name, rec := range m.records {
		if rec.PatchedAt == desc.Addr {
			return nil, wrapf(ErrAlreadyInstalled, "Install(%q): shares address with installed symbol %q", symbolName, name)
		}
	}

	stub := EmitStub(m.arch, target)
	original := make([]byte, stubLen)
	wrote, err := withWritable(desc.Addr, stubLen, func() error {
		buf := m.view.Bytes()
		off := desc.Addr - m.view.Range.Start
		copy(original, buf[off:off+uintptr(stubLen)])
		copy(buf[off:off+uintptr(stubLen)], stub)
		return nil
	})
	if !wrote {
		// Never became writable: the vdso's bytes are untouched.
		return nil, err
	}

	rec := &PatchRecord{
		Symbol:    symbolName,
		Target:    target,
		PatchedAt: desc.Addr,
		Original:  original,
		Status:    StatusInstalled,
	}
	m.records[symbolName] = rec
	m.order = append(m.order, symbolName)
	m.installed.Inc()
	if err != nil {
		// The stub is live even though restoring the page's protections
		// afterwards failed; the record is kept so Restore can retry putting
		// the original bytes back, the same contract restoreLocked gives its
		// own protection-restore failures.
		m.logger.Warn("install: protection restore failed after write", zap.String("symbol", symbolName), zap.Error(err))
		return rec, err
	}
	m.logger.Debug("installed patch", zap.String("symbol", symbolName), zap.Uintptr("addr", desc.Addr), zap.Uintptr("target", target))
	return rec, nil
}

// Restore undoes a previous Install for symbolName.
func (m *Manager) Restore(symbolName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restoreLocked(symbolName)
}

// restoreLocked assumes mu is held.
func (m *Manager) restoreLocked(symbolName string) error {
	rec, ok := m.records[symbolName]
	if !ok {
		return wrapf(ErrNotInstalled, "Restore(%q)", symbolName)
	}

	stubLen := len(rec.Original)
	_, err := withWritable(rec.PatchedAt, stubLen, func() error {
		buf := m.view.Bytes()
		off := rec.PatchedAt - m.view.Range.Start
		copy(buf[off:off+uintptr(stubLen)], rec.Original)
		return nil
	})
	if err != nil {
		// Protections are restored best-effort inside withWritable even on
		// failure; the record stays StatusInstalled so a retry is possible.
		return err
	}

	rec.Status = StatusRestored
	delete(m.records, symbolName)
	m.removeFromOrderLocked(symbolName)
	m.installed.Dec()
	m.logger.Debug("restored patch", zap.String("symbol", symbolName))
	return nil
}

func (m *Manager) removeFromOrderLocked(symbolName string) {
	for i, n := range m.order {
		if n == symbolName {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// RestoreAll restores every currently-installed patch in reverse
// installation order. It is best-effort: a failure on one entry does not
// stop the others from being attempted. The first failure encountered is
// returned as (and headlines) the aggregated error.
func (m *Manager) RestoreAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := make([]string, len(m.order))
	copy(order, m.order)

	// multierr preserves append order, so the first failure encountered
	// while walking in reverse installation order headlines the combined
	// error.
	var combined error
	for i := len(order) - 1; i >= 0; i-- {
		if err := m.restoreLocked(order[i]); err != nil {
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}

// ScopedGuard owns the patch records it installed and guarantees their
// restoration on Close, on every exit path including failure.
type ScopedGuard struct {
	m       *Manager
	symbols []string
}

// Close restores every patch this guard installed, in reverse order. It is
// safe to call multiple times: the first call empties the guard's symbol
// list, so later calls are no-ops. A symbol whose restore failed is dropped
// from the guard but stays installed in the Manager, where Restore can retry
// it.
func (g *ScopedGuard) Close() error {
	var combined error
	for i := len(g.symbols) - 1; i >= 0; i-- {
		if err := g.m.Restore(g.symbols[i]); err != nil {
			combined = multierr.Append(combined, err)
		}
	}
	g.symbols = nil
	return combined
}

// WithPatches installs every (symbol, target) pair in patches and returns a
// guard that restores all of them on Close. If any install fails, every
// patch already installed by this call is rolled back before the error is
// returned.
func (m *Manager) WithPatches(patches ...PatchSpec) (*ScopedGuard, error) {
	guard := &ScopedGuard{m: m}
	for _, p := range patches {
		if _, err := m.Install(p.Symbol, p.Target); err != nil {
			_ = guard.Close()
			return nil, err
		}
		guard.symbols = append(guard.symbols, p.Symbol)
	}
	return guard, nil
}
