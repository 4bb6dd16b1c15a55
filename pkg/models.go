package bank

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a registered account holder. The password hash is never serialized.
type User struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`
}

// Account is identified by its (bank, account number) pair. Balance is
// derived from the transfer log on demand and only populated for responses.
type Account struct {
	User          string `json:"user"`
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
}

// Transfer is an immutable entry in the append-only transfer log. Date is
// assigned by the server at creation time, never by callers.
type Transfer struct {
	ID          string    `json:"id"`
	FromBank    string    `json:"from_bank"`
	FromAccount string    `json:"from_account"`
	ToBank      string    `json:"to_bank"`
	ToAccount   string    `json:"to_account"`
	Amount      int64     `json:"amount"`
	Date        time.Time `json:"transfer_date"`
}

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidTransfer = errors.New("invalid transfer")
)

// InsufficientFundsError rejects a transfer that would drive the source
// account's balance negative. Balance is the source balance at check time.
type InsufficientFundsError struct {
	Balance int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance is %d", e.Balance)
}

// NewTransfer validates the required fields and builds a fully-populated
// record with a fresh ID.
func NewTransfer(fromBank, fromAccount, toBank, toAccount string, amount int64, date time.Time) (Transfer, error) {
	if fromBank == "" || fromAccount == "" || toBank == "" || toAccount == "" {
		return Transfer{}, fmt.Errorf("%w: bank and account number cannot be empty", ErrInvalidTransfer)
	}
	if amount <= 0 {
		return Transfer{}, fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}
	return Transfer{
		ID:          uuid.New().String(),
		FromBank:    fromBank,
		FromAccount: fromAccount,
		ToBank:      toBank,
		ToAccount:   toAccount,
		Amount:      amount,
		Date:        date,
	}, nil
}
