package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lexiq-backend/internal/bootstrap"
	"lexiq-backend/internal/shared/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, config.Load())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if err := bootstrap.Serve(ctx, app, 0); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
