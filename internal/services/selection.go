package services

import (
	"sync"
	"time"
)

type selKey struct {
	UserID    int64
	ProductID string
}

type selection struct {
	optionIDs []string
	deadline  time.Time
}

// SelectionStore holds in-progress option toggles keyed by (user, product),
// so selection state lives server-side instead of being re-parsed out of
// rendered keyboards. Entries expire after TTL of inactivity.
type SelectionStore struct {
	TTL time.Duration
	Now func() time.Time

	mu sync.Mutex
	m  map[selKey]*selection
}

func NewSelectionStore(ttl time.Duration) *SelectionStore {
	return &SelectionStore{TTL: ttl, Now: time.Now, m: make(map[selKey]*selection)}
}

// Toggle flips an option and returns the current selection plus whether the
// option is now on.
func (s *SelectionStore) Toggle(userID int64, productID, optionID string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	k := selKey{UserID: userID, ProductID: productID}
	sel := s.m[k]
	if sel == nil {
		sel = &selection{}
		s.m[k] = sel
	}
	sel.deadline = s.Now().Add(s.TTL)

	for i, id := range sel.optionIDs {
		if id == optionID {
			sel.optionIDs = append(sel.optionIDs[:i], sel.optionIDs[i+1:]...)
			return append([]string(nil), sel.optionIDs...), false
		}
	}
	sel.optionIDs = append(sel.optionIDs, optionID)
	return append([]string(nil), sel.optionIDs...), true
}

func (s *SelectionStore) Selected(userID int64, productID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sel := s.m[selKey{UserID: userID, ProductID: productID}]
	if sel == nil {
		return nil
	}
	return append([]string(nil), sel.optionIDs...)
}

// Clear drops the record, typically after the selection was added to the cart.
func (s *SelectionStore) Clear(userID int64, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, selKey{UserID: userID, ProductID: productID})
}

func (s *SelectionStore) sweepLocked() {
	now := s.Now()
	for k, sel := range s.m {
		if now.After(sel.deadline) {
			delete(s.m, k)
		}
	}
}
