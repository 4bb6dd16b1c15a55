package bank

import (
	"sync"
	"time"
)

// TransferStore is the append-only transfer log. Append performs no
// validation; that is the Ledger's job. Query returns, in insertion order,
// every transfer where the given (bank, account number) pair appears as
// sender or receiver, restricted to the inclusive [from, to] date range.
// A nil bound leaves that side unbounded.
type TransferStore interface {
	Append(t Transfer) error
	Query(bank, accountNumber string, from, to *time.Time) ([]Transfer, error)
}

// MemoryStore keeps the transfer log in a mutex-protected slice.
type MemoryStore struct {
	mu        sync.RWMutex
	transfers []Transfer
}

// NewMemoryStore builds a store pre-populated with the given transfers.
func NewMemoryStore(seed ...Transfer) *MemoryStore {
	s := &MemoryStore{}
	s.transfers = append(s.transfers, seed...)
	return s
}

func (s *MemoryStore) Append(t Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, t)
	return nil
}

func (s *MemoryStore) Query(bank, accountNumber string, from, to *time.Time) ([]Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transfer
	for _, t := range s.transfers {
		if !touches(t, bank, accountNumber) {
			continue
		}
		if !inRange(t.Date, from, to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// touches reports whether the account appears in either role of the transfer.
func touches(t Transfer, bank, accountNumber string) bool {
	if t.FromBank == bank && t.FromAccount == accountNumber {
		return true
	}
	return t.ToBank == bank && t.ToAccount == accountNumber
}

func inRange(ts time.Time, from, to *time.Time) bool {
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && ts.After(*to) {
		return false
	}
	return true
}
