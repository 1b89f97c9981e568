package events

import (
	"fmt"
	"sync"

	"github.com/SzKingXz/aurore-backend/config"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/bwmarrin/discordgo"
)

type Handler struct {
	config    *config.Config
	logger    *logger.Logger
	readyOnce sync.Once
}

func NewHandler(cfg *config.Config, l *logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		logger: l,
	}
}

// Register attaches the gateway handlers to a session. Safe to call once per
// shard; the ready banner is only logged by the first shard to connect.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.OnReady)
	s.AddHandler(h.OnGuildCreate)
	s.AddHandler(h.OnGuildDelete)
	s.AddHandler(h.OnMessageCreate)
	s.AddHandler(h.OnDisconnect)
}

func (h *Handler) OnReady(s *discordgo.Session, r *discordgo.Ready) {
	h.readyOnce.Do(func() {
		h.logger.Info(fmt.Sprintf("Logged in as: %s", tag(r.User)))
		h.logger.Info(fmt.Sprintf("Bot is in %d guilds", len(r.Guilds)))
		h.logger.Info(fmt.Sprintf("API: http://localhost:%d", h.config.Server.Port))

		if h.config.Discord.Status == "" {
			return
		}
		if err := s.UpdateGameStatus(0, h.config.Discord.Status); err != nil {
			h.logger.Error(fmt.Sprintf("Error setting status: %v", err))
		}
	})
}

func (h *Handler) OnGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil {
		return
	}
	h.logger.Debug(fmt.Sprintf("Guild available: %s (ID: %s, %d members)", g.Name, g.ID, g.MemberCount))
}

func (h *Handler) OnGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Guild == nil {
		return
	}
	if g.Unavailable {
		h.logger.Warn("Guild became unavailable: ", g.ID)
		return
	}
	h.logger.Info("Bot removed from guild ID: ", g.ID)
}

func (h *Handler) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.config.Debug || m.Author == nil {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	h.logger.Debug(fmt.Sprintf("Message received from %s in %s", m.Author.Username, m.ChannelID))
}

func (h *Handler) OnDisconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	h.logger.Warn(fmt.Sprintf("Gateway disconnected (shard %d), discordgo will reconnect", s.ShardID))
}

func tag(u *discordgo.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
