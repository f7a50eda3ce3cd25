// Package featureflags answers boolean feature toggles by name.
package featureflags

import "sync"

const (
	// EdgeParityStaleness shows separate conventional/immutable staleness tabs.
	EdgeParityStaleness = "edgeParity.ui.staleness"
	// KesselMigration protects the ungrouped workspace from rename and delete.
	KesselMigration = "hbi.kessel-migration"
)

// Source reports whether a flag is on. Unknown flags are off.
type Source interface {
	Enabled(name string) bool
}

// Static is a Source backed by configuration.
type Static struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewStatic copies the given flags.
func NewStatic(flags map[string]bool) *Static {
	s := &Static{flags: make(map[string]bool, len(flags))}
	for k, v := range flags {
		s.flags[k] = v
	}
	return s
}

func (s *Static) Enabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[name]
}

// Set toggles a flag at runtime.
func (s *Static) Set(name string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = on
}
