package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/finbrief/daily-brief/internal/config"
	"github.com/finbrief/daily-brief/internal/handlers"
)

func main() {
	force := flag.Bool("force", false, "run even if a successful run was already recorded today")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create server instance (contains all the clients)
	server, err := handlers.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx := context.Background()

	result, err := server.ProcessAndDeliver(ctx, *force)
	if err != nil {
		if errors.Is(err, handlers.ErrAlreadyRan) {
			fmt.Println("Already ran today; use -force to run again")
			return
		}
		log.Fatalf("Processing failed: %v", err)
	}

	if !result.Success {
		fmt.Printf("Run failed in state %s; see failures in the logs\n", result.FinalState)
		os.Exit(1)
	}

	fmt.Printf("Run completed: %s (delivered=%t)\n", result.Filename, result.Delivered)
}
