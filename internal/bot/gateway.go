package bot

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrNotConnected  = errors.New("bot is not connected")
	ErrGuildNotFound = errors.New("guild not found in gateway cache")
)

// Gateway is the read side of the gateway session that HTTP handlers depend on.
type Gateway interface {
	Connected() bool
	Self() *discordgo.User
	// HasGuild reports cache membership without copying the guild.
	HasGuild(id string) bool
	// Guild returns a full snapshot (members, presences, channels, roles).
	Guild(id string) (*GuildSnapshot, bool)
	// Guilds returns summary snapshots with empty collections.
	Guilds() []*GuildSnapshot
	Latency() time.Duration
	Uptime() time.Duration
	FetchMembers(ctx context.Context, guildID string) error
	FetchUser(ctx context.Context, userID string) (*discordgo.User, error)
}

// GuildSnapshot is a copy of a cached guild taken under the state lock, so it
// can be read while the gateway keeps mutating the cache.
type GuildSnapshot struct {
	ID                       string
	Name                     string
	Icon                     string
	OwnerID                  string
	MemberCount              int
	PremiumTier              discordgo.PremiumTier
	PremiumSubscriptionCount int

	Members   []discordgo.Member
	Presences []discordgo.Presence
	Channels  []discordgo.Channel
	Roles     []discordgo.Role
}

// IconURL is empty when the guild has no icon.
func (g *GuildSnapshot) IconURL(size string) string {
	return (&discordgo.Guild{ID: g.ID, Icon: g.Icon}).IconURL(size)
}

func (g *GuildSnapshot) CreatedAt() time.Time {
	ts, err := discordgo.SnowflakeTimestamp(g.ID)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// snapshotGuild must be called with the owning state read-locked.
func snapshotGuild(g *discordgo.Guild, full bool) *GuildSnapshot {
	snap := &GuildSnapshot{
		ID:                       g.ID,
		Name:                     g.Name,
		Icon:                     g.Icon,
		OwnerID:                  g.OwnerID,
		MemberCount:              g.MemberCount,
		PremiumTier:              g.PremiumTier,
		PremiumSubscriptionCount: g.PremiumSubscriptionCount,
	}
	if !full {
		return snap
	}

	snap.Members = make([]discordgo.Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m != nil {
			snap.Members = append(snap.Members, *m)
		}
	}
	snap.Presences = make([]discordgo.Presence, 0, len(g.Presences))
	for _, p := range g.Presences {
		if p != nil {
			snap.Presences = append(snap.Presences, *p)
		}
	}
	snap.Channels = make([]discordgo.Channel, 0, len(g.Channels))
	for _, c := range g.Channels {
		if c != nil {
			snap.Channels = append(snap.Channels, *c)
		}
	}
	snap.Roles = make([]discordgo.Role, 0, len(g.Roles))
	for _, r := range g.Roles {
		if r != nil {
			snap.Roles = append(snap.Roles, *r)
		}
	}
	return snap
}
