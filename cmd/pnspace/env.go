package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables supply defaults for flags shared across
// subcommands. Explicit flags always win.
const (
	envMaxStates = "PNSPACE_MAX_STATES"
	envMaxIter   = "PNSPACE_MAX_ITER"
	envSeed      = "PNSPACE_SEED"
)

// loadEnv merges a .env file from the working directory into the process
// environment. A missing file is not an error.
func loadEnv() {
	_ = godotenv.Load()
}

// envInt reads an integer variable, falling back on missing or malformed
// values.
func envInt(name string, fallback int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(name string, fallback int64) int64 {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
