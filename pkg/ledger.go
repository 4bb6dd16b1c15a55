package bank

import (
	"sync"
	"time"
)

// Ledger computes account balances from the transfer log and creates new
// transfers subject to the non-negative balance rule.
type Ledger struct {
	mu    sync.Mutex
	store TransferStore
	now   func() time.Time
}

func NewLedger(store TransferStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Balance folds the account's full transfer history: amounts sent are
// subtracted, amounts received are added. An account with no transfers has
// balance 0. A transfer from an account to itself applies both roles and
// nets to zero.
func (l *Ledger) Balance(bank, accountNumber string) (int64, error) {
	transfers, err := l.store.Query(bank, accountNumber, nil, nil)
	if err != nil {
		return 0, err
	}
	var balance int64
	for _, t := range transfers {
		if t.FromBank == bank && t.FromAccount == accountNumber {
			balance -= t.Amount
		}
		if t.ToBank == bank && t.ToAccount == accountNumber {
			balance += t.Amount
		}
	}
	return balance, nil
}

// History returns the account's transfers within the inclusive date range,
// in insertion order. Nil bounds are unbounded.
func (l *Ledger) History(bank, accountNumber string, from, to *time.Time) ([]Transfer, error) {
	return l.store.Query(bank, accountNumber, from, to)
}

// CreateTransfer records a new outgoing transfer after checking that the
// source account can cover it. On an insufficient balance it returns
// *InsufficientFundsError and leaves the store untouched.
//
// The mutex serializes the balance check and the append so two concurrent
// creations cannot both pass the check and overdraw the account.
func (l *Ledger) CreateTransfer(fromBank, fromAccount, toBank, toAccount string, amount int64) (Transfer, error) {
	t, err := NewTransfer(fromBank, fromAccount, toBank, toAccount, amount, l.now())
	if err != nil {
		return Transfer{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, err := l.Balance(fromBank, fromAccount)
	if err != nil {
		return Transfer{}, err
	}
	if amount > balance {
		return Transfer{}, &InsufficientFundsError{Balance: balance}
	}
	if err := l.store.Append(t); err != nil {
		return Transfer{}, err
	}
	return t, nil
}
