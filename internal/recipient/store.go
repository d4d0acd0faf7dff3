package recipient

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/quote"
)

// EventKind labels store change notifications.
type EventKind string

const (
	EventLoaded    EventKind = "loaded"
	EventEdited    EventKind = "edited"
	EventStatus    EventKind = "status"
	EventAmount    EventKind = "amount"
	EventCompleted EventKind = "completed"
	EventCleared   EventKind = "cleared"
)

// Event describes one store mutation. ID is empty for collection-wide events.
type Event struct {
	Kind EventKind
	ID   string
}

// Store is the canonical ordered recipient collection. All reads return
// copies; observers are invoked outside the lock.
type Store struct {
	mu        sync.Mutex
	order     []string
	byID      map[string]*Recipient
	file      string
	observers []func(Event)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Recipient)}
}

// Subscribe registers a change observer. Observers must not call back into
// the store synchronously from the callback.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) notify(e Event) {
	s.mu.Lock()
	observers := make([]func(Event), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(e)
	}
}

// Replace swaps in a freshly imported collection and remembers the source
// file reference.
func (s *Store) Replace(recs []Recipient, file string) {
	s.mu.Lock()
	s.order = s.order[:0]
	s.byID = make(map[string]*Recipient, len(recs))
	for i := range recs {
		rec := recs[i]
		s.order = append(s.order, rec.ID)
		s.byID[rec.ID] = &rec
	}
	s.file = file
	s.mu.Unlock()
	s.notify(Event{Kind: EventLoaded})
}

// Clear empties the collection and drops the file reference.
func (s *Store) Clear() {
	s.mu.Lock()
	s.order = nil
	s.byID = make(map[string]*Recipient)
	s.file = ""
	s.mu.Unlock()
	s.notify(Event{Kind: EventCleared})
}

// File returns the source file reference of the current collection.
func (s *Store) File() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Len reports the collection size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Get returns a copy of one recipient.
func (s *Store) Get(id string) (Recipient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return Recipient{}, false
	}
	return *rec, true
}

// Recipients returns copies of all recipients in insertion order.
func (s *Store) Recipients() []Recipient {
	return s.filter(func(Recipient) bool { return true })
}

// Incomplete returns recipients whose completion flag is unset, in order.
func (s *Store) Incomplete() []Recipient {
	return s.filter(func(r Recipient) bool { return !r.Completed })
}

// Completed returns recipients whose completion flag is set, in order.
func (s *Store) Completed() []Recipient {
	return s.filter(func(r Recipient) bool { return r.Completed })
}

// ByAsset returns recipients holding the given payout asset, in order.
func (s *Store) ByAsset(assetAddr string) []Recipient {
	return s.filter(func(r Recipient) bool { return r.Asset.Address == assetAddr })
}

func (s *Store) filter(keep func(Recipient) bool) []Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recipient, 0, len(s.order))
	for _, id := range s.order {
		if rec := s.byID[id]; keep(*rec) {
			out = append(out, *rec)
		}
	}
	return out
}

// PayoutAssets returns the distinct payout-asset addresses among current
// recipients, in first-appearance order, excluding excludeAddr.
func (s *Store) PayoutAssets(excludeAddr string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.order))
	var out []string
	for _, id := range s.order {
		addr := s.byID[id].Asset.Address
		if addr == excludeAddr {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// Edit holds the editable recipient fields.
type Edit struct {
	Name   string
	Wallet string
	USD    decimal.Decimal
	Asset  asset.Asset
}

// ApplyEdit updates one recipient, revalidates its address, and recomputes
// its token amount from the current price. Unknown ids are a checked error.
func (s *Store) ApplyEdit(id string, e Edit, b Builder) error {
	amount := decimal.Zero
	if computed, err := quote.TokenAmount(e.USD, e.Asset, b.Prices); err == nil {
		amount = computed
	}
	status := StatusAddressInvalid
	if b.Validate(e.Wallet) {
		status = StatusAddressValid
	}

	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("edit %s: %w", id, ErrNotFound)
	}
	rec.Name = e.Name
	rec.Wallet = e.Wallet
	rec.USD = e.USD
	rec.Asset = e.Asset
	rec.Amount = amount
	rec.Status = status
	s.mu.Unlock()

	s.notify(Event{Kind: EventEdited, ID: id})
	return nil
}

// SetStatus moves one recipient to the given lifecycle state.
func (s *Store) SetStatus(id string, status Status) error {
	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("set status %s: %w", id, ErrNotFound)
	}
	rec.Status = status
	s.mu.Unlock()

	s.notify(Event{Kind: EventStatus, ID: id})
	return nil
}

// SetAmount refreshes the cached token amount of one recipient.
func (s *Store) SetAmount(id string, amount decimal.Decimal) error {
	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("set amount %s: %w", id, ErrNotFound)
	}
	rec.Amount = amount
	s.mu.Unlock()

	s.notify(Event{Kind: EventAmount, ID: id})
	return nil
}

// MarkCompleted sets the completion flag of one recipient.
func (s *Store) MarkCompleted(id string) error {
	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("mark completed %s: %w", id, ErrNotFound)
	}
	rec.Completed = true
	s.mu.Unlock()

	s.notify(Event{Kind: EventCompleted, ID: id})
	return nil
}
