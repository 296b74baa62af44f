// Command resumatchctl is an operator CLI for tasks outside the HTTP
// surface: catalog validation/listing and one-off document ingestion.
// Structured as a cobra command tree the way spigell-hh-responder's cmd
// package is, but kept in a single package main since this tool ships one
// binary rather than a library plus a thin wrapper.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"resumatch/internal/logger"
)

func main() {
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		logger.Error().Err(err).Msg("resumatchctl failed")
		os.Exit(1)
	}
}
