package systems

import (
	"sort"
	"sync"
)

// SelectionStore keeps the selected row IDs of each table.
type SelectionStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]struct{}
}

func NewSelectionStore() *SelectionStore {
	return &SelectionStore{tables: make(map[string]map[string]struct{})}
}

// Set selects or deselects ids in table.
func (s *SelectionStore) Set(table string, ids []string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.tables[table]
	if sel == nil {
		if !selected {
			return
		}
		sel = make(map[string]struct{})
		s.tables[table] = sel
	}
	for _, id := range ids {
		if selected {
			sel[id] = struct{}{}
		} else {
			delete(sel, id)
		}
	}
	if len(sel) == 0 {
		delete(s.tables, table)
	}
}

func (s *SelectionStore) Select(table string, ids ...string) {
	s.Set(table, ids, true)
}

func (s *SelectionStore) Deselect(table string, ids ...string) {
	s.Set(table, ids, false)
}

// Reset clears the selection of table.
func (s *SelectionStore) Reset(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, table)
}

// Selected returns the selected IDs of table, sorted.
func (s *SelectionStore) Selected(table string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables[table]))
	for id := range s.tables[table] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
