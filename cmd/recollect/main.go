package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/dmfarland/recollect/internal/cli"
)

func main() {
	// Optional .env for RECOLLECT_* and API keys; absence is fine.
	godotenv.Load()

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
