// Package notify keeps the toast notifications shown to console users.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rflorenc/inventory-console/internal/metrics"
)

// Variant values.
const (
	Success = "success"
	Danger  = "danger"
	Warning = "warning"
	Info    = "info"
)

const maxKept = 200

// Notification is a single toast. Key groups repeated notifications of the
// same kind ("settings-saved").
type Notification struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Variant     string    `json:"variant"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Dismissable bool      `json:"dismissable"`
	CreatedAt   time.Time `json:"created_at"`
	dismissed   bool
}

// Dispatcher accepts notifications.
type Dispatcher interface {
	Dispatch(n Notification) Notification
}

// Store is an in-memory thread-safe notification log. Only the most
// recent notifications are kept; Since offsets are absolute.
type Store struct {
	mu      sync.RWMutex
	items   []Notification
	dropped int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Dispatch records n, assigning an ID and timestamp.
func (s *Store) Dispatch(n Notification) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()
	s.items = append(s.items, n)
	if len(s.items) > maxKept {
		over := len(s.items) - maxKept
		s.items = append([]Notification(nil), s.items[over:]...)
		s.dropped += over
	}
	metrics.NotificationsTotal.WithLabelValues(n.Variant).Inc()
	return n
}

// Since returns notifications dispatched at or after the absolute offset,
// and the offset to resume from.
func (s *Store) Since(offset int) ([]Notification, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := s.dropped + len(s.items)
	start := offset - s.dropped
	if start < 0 {
		start = 0
	}
	var out []Notification
	for _, n := range s.items[min(start, len(s.items)):] {
		if !n.dismissed {
			out = append(out, n)
		}
	}
	return out, next
}

// List returns the kept notifications, oldest first.
func (s *Store) List() []Notification {
	out, _ := s.Since(0)
	if out == nil {
		return []Notification{}
	}
	return out
}

// Dismiss hides a dismissable notification. Returns false if it is
// unknown, already dismissed or not dismissable.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			if !s.items[i].Dismissable || s.items[i].dismissed {
				return false
			}
			s.items[i].dismissed = true
			return true
		}
	}
	return false
}
