package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SzKingXz/aurore-backend/api/middleware"
	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/api/services"
	"github.com/SzKingXz/aurore-backend/internal/bot"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/gin-gonic/gin"
)

type GuildController struct {
	guilds *services.GuildService
	oauth  *services.OAuthService
	logger *logger.Logger
}

func NewGuildController(guilds *services.GuildService, oauth *services.OAuthService, l *logger.Logger) *GuildController {
	return &GuildController{
		guilds: guilds,
		oauth:  oauth,
		logger: l,
	}
}

var errNotConnected = models.ErrorResponse{Error: "bot not connected"}

func (gc *GuildController) BotInfo(c *gin.Context) {
	info, err := gc.guilds.BotInfo()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errNotConnected)
		return
	}
	c.JSON(http.StatusOK, info)
}

// UserServers lists the guilds shared by the bot and the token's owner.
func (gc *GuildController) UserServers(c *gin.Context) {
	token := c.GetString(middleware.AccessTokenKey)

	userGuilds, err := gc.oauth.UserGuilds(c.Request.Context(), token)
	if errors.Is(err, services.ErrInvalidToken) {
		gc.logger.Warn("Invalid token: ", err)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token"})
		return
	}
	if err != nil {
		gc.logger.Error("Error fetching user guilds: ", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to fetch servers"})
		return
	}

	servers, err := gc.guilds.UserServers(userGuilds)
	if errors.Is(err, bot.ErrNotConnected) {
		c.JSON(http.StatusServiceUnavailable, errNotConnected)
		return
	}
	if err != nil {
		gc.logger.Error("Error building server list: ", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to fetch servers"})
		return
	}

	c.JSON(http.StatusOK, models.ServersResponse{Servers: servers})
}

func (gc *GuildController) ServerDetail(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			gc.logger.Error("Panic building server detail: ", r)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to fetch server data",
				Details: fmt.Sprint(r),
			})
		}
	}()

	detail, err := gc.guilds.Detail(c.Request.Context(), c.Param("serverId"))
	switch {
	case errors.Is(err, bot.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, errNotConnected)
	case errors.Is(err, bot.ErrGuildNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "server not found"})
	case err != nil:
		gc.logger.Error("Error fetching server data: ", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to fetch server data",
			Details: err.Error(),
		})
	default:
		c.JSON(http.StatusOK, detail)
	}
}
