package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"invoicedesk/cmd"
	"invoicedesk/internal/config"
	"invoicedesk/internal/logger"
)

func main() {
	// Load environment variables; a missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting invoicedesk")

	cmd.Execute()

	log.Debug().Msg("invoicedesk finished")
}
