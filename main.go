package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pitfloor/controllers/loyaltyops"
	"pitfloor/controllers/slips"
	"pitfloor/database"
	"pitfloor/jobs"
	"pitfloor/loyalty"
	"pitfloor/routes"
	"pitfloor/services"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on environment")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db := database.Connect()

	loyaltySvc := loyalty.NewService(db, log.Logger)
	lifecycleSvc := services.NewLifecycleService(db, log.Logger)
	moveSvc := services.NewMoveService(db, lifecycleSvc, log.Logger)
	completionSvc := services.NewCompletionService(db, lifecycleSvc, loyaltySvc, loyaltySvc, log.Logger)

	slipHandler := slips.NewHandler(lifecycleSvc, moveSvc, completionSvc)
	loyaltyHandler := loyaltyops.NewHandler(loyaltySvc, loyalty.NewMemoryRateLimiter())

	app := fiber.New()
	routes.Setup(app, slipHandler, loyaltyHandler)

	sweeper := jobs.StartRecoverySweeper(db, completionSvc, log.Logger)

	host := os.Getenv("HOST")
	port := os.Getenv("PORT")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3000"
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	log.Info().Str("addr", addr).Msg("server running")

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Panic().Err(err).Msg("failed to start server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("gracefully shutting down")
	sweeper.Stop()
	if err := app.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited cleanly")
}
