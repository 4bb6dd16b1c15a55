package bank

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := NewMemoryStore(SeedTransfers()...)
	ledger := NewLedger(store)
	directory := NewAccountDirectory(SeedUsers(), SeedAccounts())
	api := NewAPI(ledger, directory, "test_secret", time.Hour)
	ts := httptest.NewServer(api.Routes())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON sends a JSON request, checks the status code and decodes the
// response into out when non-nil.
func doJSON(t *testing.T, method, url, token string, body any, wantCode int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantCode {
		t.Fatalf("%s %s: code=%d want=%d", method, url, resp.StatusCode, wantCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	var resp map[string]string
	doJSON(t, "POST", ts.URL+"/login", "", map[string]string{
		"username": username,
		"password": password,
	}, http.StatusOK, &resp)
	if resp["token"] == "" {
		t.Fatal("login returned an empty token")
	}
	return resp["token"]
}

func accountBalance(t *testing.T, ts *httptest.Server, token, bank, number string) int64 {
	t.Helper()
	var acc Account
	doJSON(t, "GET", ts.URL+"/accounts/"+bank+"/"+number, token, nil, http.StatusOK, &acc)
	return acc.Balance
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/login", "", map[string]string{
		"username": "johndoe", "password": "wrong",
	}, http.StatusUnauthorized, nil)

	doJSON(t, "POST", ts.URL+"/login", "", map[string]string{
		"username": "ghost", "password": "secret",
	}, http.StatusUnauthorized, nil)

	doJSON(t, "POST", ts.URL+"/login", "", map[string]string{}, http.StatusBadRequest, nil)
}

func TestEndpointsRequireToken(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "GET", ts.URL+"/users/me/accounts", "", nil, http.StatusUnauthorized, nil)
	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123456", "garbage-token", nil, http.StatusUnauthorized, nil)
	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", "",
		map[string]any{"to_bank": "11-33-44", "to_account": "3333", "amount": 1},
		http.StatusUnauthorized, nil)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	var user User
	doJSON(t, "GET", ts.URL+"/users/me", token, nil, http.StatusOK, &user)
	if user.FullName != "John Doe" {
		t.Fatalf("full name = %q, want %q", user.FullName, "John Doe")
	}
}

func TestListMyAccountsWithBalances(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	var accounts []Account
	doJSON(t, "GET", ts.URL+"/users/me/accounts", token, nil, http.StatusOK, &accounts)
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	if accounts[0].AccountNumber != "123456" || accounts[0].Balance != 67 {
		t.Errorf("first account = %+v, want 123456 with balance 67", accounts[0])
	}
	if accounts[1].AccountNumber != "123457" || accounts[1].Balance != 100 {
		t.Errorf("second account = %+v, want 123457 with balance 100", accounts[1])
	}
}

func TestAccountDetailHidesForeignAccounts(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	if got := accountBalance(t, ts, token, "33-01-02", "123456"); got != 67 {
		t.Fatalf("balance = %d, want 67", got)
	}

	// mroubaud's account exists but must read as not found.
	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/789098", token, nil, http.StatusNotFound, nil)
	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/000000", token, nil, http.StatusNotFound, nil)
}

func TestCreateTransferFlow(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	var created Transfer
	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "3333", "amount": 2},
		http.StatusCreated, &created)
	if created.FromAccount != "123456" || created.Amount != 2 {
		t.Fatalf("created = %+v", created)
	}
	if created.Date.IsZero() {
		t.Error("created transfer has no server-assigned date")
	}

	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "4444", "amount": 1},
		http.StatusCreated, nil)

	if got := accountBalance(t, ts, token, "33-01-02", "123456"); got != 64 {
		t.Fatalf("balance after sending 2 and 1 = %d, want 64", got)
	}
}

func TestCreateTransferInsufficientFunds(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	balance := accountBalance(t, ts, token, "33-01-02", "123456")
	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "3333", "amount": balance + 1},
		http.StatusBadRequest, nil)

	if got := accountBalance(t, ts, token, "33-01-02", "123456"); got != balance {
		t.Fatalf("balance = %d after rejected transfer, want unchanged %d", got, balance)
	}
}

func TestCreateTransferFromForeignAccountIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/789098/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "3333", "amount": 1},
		http.StatusNotFound, nil)
}

func TestCreateTransferRejectsBadBody(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "3333", "amount": 0},
		http.StatusBadRequest, nil)
	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "", "to_account": "3333", "amount": 1},
		http.StatusBadRequest, nil)

	req, _ := http.NewRequest("POST", ts.URL+"/accounts/33-01-02/123456/transfers", strings.NewReader("{bad json}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json: code=%d want=400", resp.StatusCode)
	}
}

func TestTransferBetweenOwnAccounts(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	balance1 := accountBalance(t, ts, token, "33-01-02", "123456")
	balance2 := accountBalance(t, ts, token, "33-01-02", "123457")

	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "33-01-02", "to_account": "123457", "amount": 1},
		http.StatusCreated, nil)

	if got := accountBalance(t, ts, token, "33-01-02", "123456"); got != balance1-1 {
		t.Errorf("sender balance = %d, want %d", got, balance1-1)
	}
	if got := accountBalance(t, ts, token, "33-01-02", "123457"); got != balance2+1 {
		t.Errorf("receiver balance = %d, want %d", got, balance2+1)
	}
}

func TestListTransfersOnlyForOwnAccount(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123457/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "3333", "amount": 1},
		http.StatusCreated, nil)
	doJSON(t, "POST", ts.URL+"/accounts/33-01-02/123456/transfers", token,
		map[string]any{"to_bank": "11-33-44", "to_account": "5555", "amount": 1},
		http.StatusCreated, nil)

	var transfers []Transfer
	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123457/transfers", token, nil, http.StatusOK, &transfers)
	for _, tr := range transfers {
		if tr.ToAccount == "5555" {
			t.Errorf("transfer from another account leaked into the list: %+v", tr)
		}
	}
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want the seeded credit plus one new", len(transfers))
	}
}

func TestListTransfersFilteredByDate(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "johndoe", "secret")

	var transfers []Transfer
	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123457/transfers?from_date=1988-01-01",
		token, nil, http.StatusOK, &transfers)
	if len(transfers) == 0 {
		t.Fatal("open upper bound should include the seeded transfer")
	}

	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123457/transfers?from_date=1988-01-01&to_date=1989-01-01",
		token, nil, http.StatusOK, &transfers)
	if len(transfers) != 0 {
		t.Fatalf("range before any activity: got %d transfers, want 0", len(transfers))
	}

	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123457/transfers?to_date=2100-01-01",
		token, nil, http.StatusOK, &transfers)
	if len(transfers) == 0 {
		t.Fatal("far-future upper bound should include the seeded transfer")
	}

	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123457/transfers?from_date=not-a-date",
		token, nil, http.StatusBadRequest, nil)
}

func TestOtherUserCannotSeeJohndoesAccounts(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "mroubaud", "secret")

	var accounts []Account
	doJSON(t, "GET", ts.URL+"/users/me/accounts", token, nil, http.StatusOK, &accounts)
	if len(accounts) != 1 || accounts[0].AccountNumber != "789098" {
		t.Fatalf("accounts = %+v, want only 789098", accounts)
	}

	doJSON(t, "GET", ts.URL+"/accounts/33-01-02/123456", token, nil, http.StatusNotFound, nil)
}
