package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"fortuneone-chat-backend/internal/bizconfig"
	"fortuneone-chat-backend/internal/chat"
	"fortuneone-chat-backend/internal/config"
	"fortuneone-chat-backend/internal/db"
	"fortuneone-chat-backend/internal/dispatch"
	"fortuneone-chat-backend/internal/scheduling"
	"fortuneone-chat-backend/internal/server"
	"fortuneone-chat-backend/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	spec, err := chat.LoadPromptSpec(cfg.PromptSpecPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load prompt spec")
	}

	// The single shared admission bound for all model calls, owned here and
	// injected; nothing else may construct one.
	dispatcher := dispatch.New(cfg.MaxConcurrentCalls)
	client := openai.NewClient(cfg.OpenAIAPIKey)

	var provider scheduling.Provider
	if cfg.SquareAccessToken != "" && cfg.SquareLocationID != "" {
		sq := scheduling.NewSquareProvider(cfg.SquareAccessToken, cfg.SquareLocationID)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sq.VerifyLocation(ctx); err != nil {
			log.Warn().Err(err).Msg("square location check failed; enrichment may degrade")
		}
		cancel()
		provider = sq
	} else {
		log.Warn().Msg("square credentials not configured; availability and booking enrichment disabled")
	}

	var database *db.DB
	var bookingLog *store.BookingLog
	if cfg.DatabaseURL != "" {
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer database.Close()
		if err := database.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure database schema")
		}
		bookingLog = store.NewBookingLog(database)
		log.Info().Msg("database connection established; booking log enabled")
	} else {
		log.Info().Msg("DB_URL not provided; bookings will not be recorded")
	}

	chatSvc := chat.NewService(client, cfg.Model, dispatcher, provider, spec, bookingLog)
	sessions := store.NewSessionRegistry()
	srv := server.New(cfg, chatSvc, bizconfig.NewLoader(cfg.BusinessConfigDir), sessions, database)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("fortuneone server listening")
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
