package bank

// AccountDirectory maps user identities to the accounts they own. The
// directory is fixed for the lifetime of the process and is always passed
// explicitly to its consumers, never held as a package global.
type AccountDirectory struct {
	users    []User
	accounts []Account
}

func NewAccountDirectory(users []User, accounts []Account) *AccountDirectory {
	return &AccountDirectory{users: users, accounts: accounts}
}

// FindUser looks up a user by username for credential checks.
func (d *AccountDirectory) FindUser(username string) (User, bool) {
	for _, u := range d.users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// ListAccounts returns the user's accounts in registration order, with zero
// balances; callers compose with the Ledger to populate them. An unknown
// user yields an empty list, not an error.
func (d *AccountDirectory) ListAccounts(username string) []Account {
	var out []Account
	for _, a := range d.accounts {
		if a.User == username {
			out = append(out, a)
		}
	}
	return out
}

// Owns reports whether the (bank, account number) pair belongs to the user.
func (d *AccountDirectory) Owns(username, bank, accountNumber string) bool {
	for _, a := range d.ListAccounts(username) {
		if a.Bank == bank && a.AccountNumber == accountNumber {
			return true
		}
	}
	return false
}
