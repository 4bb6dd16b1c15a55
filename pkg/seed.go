package bank

import (
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Seed fixtures for the demo deployment. They mirror the reference data
// set: two users, three accounts on the same bank, and three historical
// transfers that give account 123456 an opening balance of 67.

func SeedUsers() []User {
	return []User{
		{Username: "johndoe", FullName: "John Doe", PasswordHash: mustHash("secret")},
		{Username: "mroubaud", FullName: "Marc Roubaud", PasswordHash: mustHash("secret")},
	}
}

func SeedAccounts() []Account {
	return []Account{
		{User: "johndoe", Bank: "33-01-02", AccountNumber: "123456"},
		{User: "johndoe", Bank: "33-01-02", AccountNumber: "123457"},
		{User: "mroubaud", Bank: "33-01-02", AccountNumber: "789098"},
	}
}

func SeedTransfers() []Transfer {
	return []Transfer{
		{
			ID:          uuid.New().String(),
			FromBank:    "12-34-56",
			FromAccount: "11111111",
			ToBank:      "33-01-02",
			ToAccount:   "123456",
			Amount:      100,
			Date:        time.Date(2024, 3, 31, 3, 0, 0, 0, time.UTC),
		},
		{
			ID:          uuid.New().String(),
			FromBank:    "33-01-02",
			FromAccount: "123456",
			ToBank:      "11-11-22",
			ToAccount:   "009090",
			Amount:      33,
			Date:        time.Date(2024, 3, 31, 6, 0, 0, 0, time.UTC),
		},
		{
			ID:          uuid.New().String(),
			FromBank:    "33-01-02",
			FromAccount: "223345",
			ToBank:      "33-01-02",
			ToAccount:   "123457",
			Amount:      100,
			Date:        time.Date(2024, 3, 28, 6, 0, 0, 0, time.UTC),
		},
	}
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}
	return string(hash)
}
