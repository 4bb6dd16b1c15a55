package main

import (
	bank "bankledger/pkg"
	"log"
	"net/http"
)

func main() {
	cfg, err := bank.ParseConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The transfer store is the single shared resource; everything else is
	// wired from it explicitly.
	var store bank.TransferStore
	if cfg.DBPath != "" {
		sqliteStore, err := bank.OpenSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open transfer store: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	} else {
		store = bank.NewMemoryStore(bank.SeedTransfers()...)
	}

	ledger := bank.NewLedger(store)
	directory := bank.NewAccountDirectory(bank.SeedUsers(), bank.SeedAccounts())
	api := bank.NewAPI(ledger, directory, cfg.JWTSecret, cfg.TokenTTL)

	handler := bank.Logger(cfg.AccessLog, api.Routes())

	// Start the server
	log.Println("Starting server on", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
