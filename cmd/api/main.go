package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"speech-coach-go/internal/api"
	"speech-coach-go/internal/config"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/processor"
)

func main() {
	_ = godotenv.Load() // loads .env before the logger reads ENVIRONMENT

	log := logger.New()
	log.Info("starting service")

	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.WithField("llm_provider", cfg.LLM.Provider).
		WithField("mock_llm", cfg.LLM.Mock).
		WithField("timestamp_format", cfg.TimestampStyle).
		WithField("speech_rate_source", cfg.SpeechRateSource).
		Info("configuration loaded")

	proc, err := processor.Build(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build processor")
	}

	h := &api.Handler{
		Processor:      proc,
		Log:            log,
		DatasetPath:    cfg.DatasetPath,
		DefaultTimeout: 2 * time.Minute,
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown incomplete")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
