package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"speech-coach-go/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New()
	if err := newRootCmd(log).ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}
