package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smas/api/internal/config"
	"smas/api/internal/gemini"
	"smas/api/internal/handle"
	"smas/api/internal/httpserver"
	"smas/api/internal/logging"
)

func main() {
	_ = godotenv.Load() // .env необязателен

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	closeLog := logging.Setup("[proxy]", cfg.LogFile)
	defer closeLog()

	if cfg.GeminiAPIKey == "" {
		log.Printf("GEMINI_API_KEY is empty: /api/gemini will answer 500")
	}

	h := handle.New(
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL),
		gemini.NewGenerator(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL),
		handle.Options{
			Timeout:        cfg.RequestTimeout,
			MaxStreamBytes: int(cfg.MaxStreamBytes),
		},
	)
	router := handle.NewRouter(h, cfg.AllowedOrigins, cfg.MaxBodyBytes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("model=%s timeout=%s max_body=%dMB", cfg.GeminiModel, cfg.RequestTimeout, cfg.MaxBodyMB)
	if err := httpserver.Run(ctx, httpserver.New(":"+cfg.Port, router)); err != nil {
		log.Fatal(err)
	}
}
