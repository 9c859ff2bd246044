package main

import (
	"log/slog"
	"os"

	"github.com/nfrund/authshell/internal/config"
	"github.com/nfrund/authshell/internal/logging"
	"github.com/nfrund/authshell/internal/server"
)

func main() {
	cfg := config.New()
	logging.New() // Initialize the structured logger

	s, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	s.RegisterRoutes()
	s.Start()
}
