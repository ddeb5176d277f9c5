package cart

import (
	"sync"

	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// DefaultQuantity is used when AddToCart receives a quantity below one.
const DefaultQuantity = 1

// Change is delivered to listeners after every mutation that altered the cart.
type Change struct {
	Op       enums.CartOperation
	ItemID   string
	Snapshot Snapshot
}

// Listener observes cart changes. Listeners run synchronously, in
// subscription order, and must not mutate the store they observe.
type Listener func(Change)

// Store owns the lines of a single visitor's cart.
type Store struct {
	mu    sync.RWMutex
	items []Item

	// notifyMu keeps listener delivery in mutation order.
	notifyMu  sync.Mutex
	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

// NewStore builds a store from previously persisted lines. Duplicate ids are
// merged and lines with a quantity below one are dropped. A nil or empty
// slice yields an empty cart.
func NewStore(restored []Item) *Store {
	s := &Store{}
	for _, it := range restored {
		if it.Quantity < 1 || it.ID == "" {
			continue
		}
		if idx := s.indexOf(it.ID); idx >= 0 {
			s.items[idx].Quantity += it.Quantity
			continue
		}
		s.items = append(s.items, it)
	}
	return s
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// AddToCart increments the line for p.ID by quantity or appends a new line.
// A quantity below one adds a single unit.
func (s *Store) AddToCart(p Product, quantity int) {
	if quantity < 1 {
		quantity = DefaultQuantity
	}
	s.mutate(enums.CartOperationAdd, p.ID, func() bool {
		if idx := s.indexOf(p.ID); idx >= 0 {
			s.items[idx].Quantity += quantity
			return true
		}
		s.items = append(s.items, itemFromProduct(p, quantity))
		return true
	})
}

// UpdateQuantity sets the quantity of line id. Zero or less removes the line.
// Unknown ids are ignored.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(id)
		return
	}
	s.mutate(enums.CartOperationUpdate, id, func() bool {
		idx := s.indexOf(id)
		if idx < 0 || s.items[idx].Quantity == quantity {
			return false
		}
		s.items[idx].Quantity = quantity
		return true
	})
}

// RemoveFromCart drops line id if present.
func (s *Store) RemoveFromCart(id string) {
	s.mutate(enums.CartOperationRemove, id, func() bool {
		idx := s.indexOf(id)
		if idx < 0 {
			return false
		}
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		return true
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.mutate(enums.CartOperationClear, "", func() bool {
		if len(s.items) == 0 {
			return false
		}
		s.items = nil
		return true
	})
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyItems()
}

// Total is recomputed from the lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalOf(s.items)
}

// Count returns the number of units across all lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countOf(s.items)
}

// Snapshot captures lines, total and count under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) mutate(op enums.CartOperation, id string, apply func() bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := apply()
	var snap Snapshot
	if changed {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	change := Change{Op: op, ItemID: id, Snapshot: snap}
	for _, sub := range s.listeners {
		sub.fn(change)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items := s.copyItems()
	return Snapshot{Items: items, Total: totalOf(items), Count: countOf(items)}
}

func (s *Store) copyItems() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
