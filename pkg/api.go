package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// API wires the HTTP boundary to the core components. It authenticates
// callers, gates account-scoped operations through the directory, and maps
// domain errors to transport responses.
type API struct {
	Ledger    *Ledger
	Directory *AccountDirectory
	jwtKey    []byte
	tokenTTL  time.Duration
}

func NewAPI(l *Ledger, d *AccountDirectory, jwtSecret string, tokenTTL time.Duration) *API {
	return &API{Ledger: l, Directory: d, jwtKey: []byte(jwtSecret), tokenTTL: tokenTTL}
}

// Routes registers every endpoint on a fresh mux. Method and path-parameter
// matching is left to the mux patterns.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /login", http.HandlerFunc(a.Login))
	mux.Handle("GET /users/me", a.Auth(a.Me))
	mux.Handle("GET /users/me/accounts", a.Auth(a.MyAccounts))
	mux.Handle("GET /accounts/{bank}/{account_number}", a.Auth(a.AccountDetail))
	mux.Handle("GET /accounts/{bank}/{account_number}/transfers", a.Auth(a.AccountTransfers))
	mux.Handle("POST /accounts/{bank}/{account_number}/transfers", a.Auth(a.CreateTransfer))
	return mux
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		http.Error(w, "Username and password cannot be empty", http.StatusBadRequest)
		return
	}

	user, ok := a.Directory.FindUser(creds.Username)
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	expirationTime := time.Now().Add(a.tokenTTL)
	claims := &Claims{
		Username: user.Username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtKey)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": tokenString})
}

func (a *API) Me(w http.ResponseWriter, r *http.Request, claims *Claims) {
	user, ok := a.Directory.FindUser(claims.Username)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(user)
}

func (a *API) MyAccounts(w http.ResponseWriter, r *http.Request, claims *Claims) {
	accounts := a.Directory.ListAccounts(claims.Username)
	for i := range accounts {
		balance, err := a.Ledger.Balance(accounts[i].Bank, accounts[i].AccountNumber)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		accounts[i].Balance = balance
	}
	if accounts == nil {
		accounts = []Account{}
	}
	json.NewEncoder(w).Encode(accounts)
}

func (a *API) AccountDetail(w http.ResponseWriter, r *http.Request, claims *Claims) {
	bank := r.PathValue("bank")
	number := r.PathValue("account_number")
	// Non-owners get a 404: the resource's existence is not disclosed.
	if !a.Directory.Owns(claims.Username, bank, number) {
		http.Error(w, ErrAccountNotFound.Error(), http.StatusNotFound)
		return
	}
	balance, err := a.Ledger.Balance(bank, number)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(Account{
		User:          claims.Username,
		Bank:          bank,
		AccountNumber: number,
		Balance:       balance,
	})
}

func (a *API) AccountTransfers(w http.ResponseWriter, r *http.Request, claims *Claims) {
	bank := r.PathValue("bank")
	number := r.PathValue("account_number")
	if !a.Directory.Owns(claims.Username, bank, number) {
		http.Error(w, ErrAccountNotFound.Error(), http.StatusNotFound)
		return
	}

	from, err := parseDateParam(r, "from_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateParam(r, "to_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	transfers, err := a.Ledger.History(bank, number, from, to)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if transfers == nil {
		transfers = []Transfer{}
	}
	json.NewEncoder(w).Encode(transfers)
}

func (a *API) CreateTransfer(w http.ResponseWriter, r *http.Request, claims *Claims) {
	bank := r.PathValue("bank")
	number := r.PathValue("account_number")
	if !a.Directory.Owns(claims.Username, bank, number) {
		http.Error(w, ErrAccountNotFound.Error(), http.StatusNotFound)
		return
	}

	var body struct {
		ToBank    string `json:"to_bank"`
		ToAccount string `json:"to_account"`
		Amount    int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := a.Ledger.CreateTransfer(bank, number, body.ToBank, body.ToAccount, body.Amount)
	if err != nil {
		var insufficient *InsufficientFundsError
		switch {
		case errors.As(err, &insufficient):
			http.Error(w, insufficient.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrInvalidTransfer):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(t)
}

// parseDateParam reads an optional inclusive date bound from the query
// string. Both RFC 3339 timestamps and plain dates are accepted.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		ts, err = time.Parse("2006-01-02", raw)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be a date or RFC 3339 timestamp", name)
	}
	return &ts, nil
}

// Auth verifies the bearer token and hands the resolved claims to the
// wrapped handler. Core components only ever see the caller identity.
func (a *API) Auth(next func(http.ResponseWriter, *http.Request, *Claims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.Header.Get("Authorization")
		if tokenStr == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}
		tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return a.jwtKey, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r, claims)
	}
}

// Logger logs the request and response details as JSON lines appended to
// the given file.
func Logger(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lrw := &loggedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logEntry := map[string]interface{}{
			"req": map[string]interface{}{
				"url":          r.URL.Path,
				"qs_params":    r.URL.Query(),
				"req_body_len": r.ContentLength,
			},
			"rsp": map[string]interface{}{
				"status_class": getStatusClass(lrw.statusCode),
				"rsp_body_len": lrw.responseLength,
			},
		}

		logData, err := json.Marshal(logEntry)
		if err != nil {
			log.Printf("Error marshaling log data: %v", err)
			return
		}

		logToFile(path, string(logData))
	})
}

// loggedResponseWriter is a custom http.ResponseWriter to capture response details
type loggedResponseWriter struct {
	http.ResponseWriter
	statusCode     int
	responseLength int64
}

// WriteHeader captures the status code
func (lrw *loggedResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the response length
func (lrw *loggedResponseWriter) Write(b []byte) (int, error) {
	size, err := lrw.ResponseWriter.Write(b)
	lrw.responseLength += int64(size)
	return size, err
}

// getStatusClass categorizes the status code
func getStatusClass(statusCode int) string {
	return fmt.Sprintf("%dxx", statusCode/100)
}

// logToFile appends log data to a file
func logToFile(path, data string) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return
	}
	defer file.Close()

	if _, err := file.WriteString(data + "\n"); err != nil {
		log.Printf("Failed to write to log file: %v", err)
	}
}
