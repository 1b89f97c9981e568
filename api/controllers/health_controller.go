package controllers

import (
	"net/http"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/internal/bot"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

type HealthController struct {
	gateway bot.Gateway
}

func NewHealthController(gw bot.Gateway) *HealthController {
	return &HealthController{gateway: gw}
}

func (hc *HealthController) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewHealthResponse(hc.gateway.Connected()))
}

func (hc *HealthController) Describe(c *gin.Context) {
	c.JSON(http.StatusOK, models.ServiceDescriptor{
		Status:  "online",
		Message: "AURØRE Backend API",
		Version: Version,
		Endpoints: map[string]string{
			"health":        "/api/health",
			"auth":          "/api/auth/discord",
			"authQR":        "/api/auth/discord/qr",
			"callback":      "/api/auth/callback",
			"botInfo":       "/api/bot/info",
			"userServers":   "/api/user/servers",
			"serverDetails": "/api/server/:serverId",
		},
	})
}
