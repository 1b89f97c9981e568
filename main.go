package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SzKingXz/aurore-backend/api/routes"
	"github.com/SzKingXz/aurore-backend/api/server"
	"github.com/SzKingXz/aurore-backend/api/services"
	"github.com/SzKingXz/aurore-backend/config"
	"github.com/SzKingXz/aurore-backend/internal/bot"
	"github.com/SzKingXz/aurore-backend/internal/leaderboard"
	"github.com/SzKingXz/aurore-backend/internal/logger"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	logger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	logger.Info("Bot token configured: ", cfg.Discord.Token != "")
	logger.Info("Client ID configured: ", cfg.Discord.ClientID != "")
	logger.Info("Client secret configured: ", cfg.Discord.ClientSecret != "")
	if !cfg.OAuthConfigured() {
		logger.Warn("Discord OAuth is not configured, /api/auth/discord will answer 500")
	}

	var source leaderboard.Source
	if cfg.Leaderboard.MongoDB.URI != "" {
		mongoSource, err := leaderboard.NewMongoSource(cfg)
		if err != nil {
			logger.Fatal("Failed to connect leaderboard database: " + err.Error())
		}
		defer func() {
			if err := mongoSource.Close(); err != nil {
				logger.Error("Error closing MongoDB: " + err.Error())
			}
		}()
		logger.Info("Leaderboard source: MongoDB")
		source = mongoSource
	} else {
		fileSource := leaderboard.NewFileSource(cfg.Leaderboard.File).WithLogger(logger)
		logger.Info("Leaderboard source: ", fileSource.Path())
		source = fileSource
	}

	logger.Info("Initializing bot...")
	discordBot, err := bot.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create bot: " + err.Error())
	}

	srv, err := server.NewServer(routes.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Gateway: discordBot,
		OAuth:   services.NewOAuthService(cfg),
		Guilds:  services.NewGuildService(discordBot, source, logger, cfg),
	})
	if err != nil {
		logger.Fatal("Failed to create server: " + err.Error())
	}
	srv.SetupRoutes()

	go func() {
		logger.Info("Starting HTTP server on " + srv.Addr())
		if err := srv.Start(); err != nil {
			logger.Error("HTTP server error: " + err.Error())
		}
	}()

	logger.Info("Starting bot...")
	if err := discordBot.Start(); err != nil {
		// the API keeps serving and reports the bot as disconnected
		logger.Error("Failed to start bot: " + err.Error())
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	<-sc

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server: " + err.Error())
	}
	if err := discordBot.Stop(); err != nil {
		logger.Error("Error during shutdown: " + err.Error())
	}
}
