package events

import (
	"bytes"
	"strings"
	"testing"

	"github.com/SzKingXz/aurore-backend/config"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf *bytes.Buffer) *Handler {
	cfg := &config.Config{}
	cfg.Server.Port = 3001
	return NewHandler(cfg, logger.NewWithWriter(buf, "debug"))
}

func TestReadyBannerLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(&buf)
	s := &discordgo.Session{State: discordgo.NewState()}

	ready := &discordgo.Ready{
		User:   &discordgo.User{ID: "1", Username: "aurore", Discriminator: "0"},
		Guilds: []*discordgo.Guild{{ID: "g1"}, {ID: "g2"}},
	}
	h.OnReady(s, ready)
	h.OnReady(s, ready)

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "Logged in as: aurore"))
	require.Contains(t, out, "Bot is in 2 guilds")
}

func TestGuildDeleteDistinguishesOutage(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(&buf)
	s := &discordgo.Session{State: discordgo.NewState()}

	h.OnGuildDelete(s, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1", Unavailable: true}})
	h.OnGuildDelete(s, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g2"}})

	out := buf.String()
	require.Contains(t, out, "Guild became unavailable: g1")
	require.Contains(t, out, "Bot removed from guild ID: g2")
}

func TestTag(t *testing.T) {
	require.Equal(t, "unknown", tag(nil))
	require.Equal(t, "name", tag(&discordgo.User{Username: "name", Discriminator: "0"}))
	require.Equal(t, "name#1234", tag(&discordgo.User{Username: "name", Discriminator: "1234"}))
}
