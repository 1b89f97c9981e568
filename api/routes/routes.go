package routes

import (
	"github.com/SzKingXz/aurore-backend/api/controllers"
	"github.com/SzKingXz/aurore-backend/api/middleware"
	"github.com/SzKingXz/aurore-backend/api/services"
	"github.com/SzKingXz/aurore-backend/config"
	"github.com/SzKingXz/aurore-backend/internal/bot"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	Gateway bot.Gateway
	OAuth   *services.OAuthService
	Guilds  *services.GuildService
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthController := controllers.NewHealthController(deps.Gateway)
	authController := controllers.NewAuthController(
		deps.OAuth,
		deps.Logger,
		deps.Config.Server.FrontendURL,
		deps.Config.Discord.OAuth.VerifyState,
	)
	guildController := controllers.NewGuildController(deps.Guilds, deps.OAuth, deps.Logger)

	router.GET("/", healthController.Describe)

	api := router.Group("/api")
	if rl := deps.Config.Server.RateLimit; rl.RPS > 0 {
		api.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
	}

	api.GET("/health", healthController.CheckHealth)

	auth := api.Group("/auth")
	auth.GET("/discord", authController.Login)
	auth.GET("/discord/qr", authController.LoginQR)
	auth.GET("/callback", authController.Callback)

	api.GET("/bot/info", guildController.BotInfo)
	api.GET("/user/servers", middleware.RequireBearer(deps.Logger), guildController.UserServers)
	api.GET("/server/:serverId", guildController.ServerDetail)
}
