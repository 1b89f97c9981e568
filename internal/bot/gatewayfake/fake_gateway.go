package gatewayfake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SzKingXz/aurore-backend/internal/bot"
	"github.com/bwmarrin/discordgo"
)

// FakeGateway is an in-memory bot.Gateway.
type FakeGateway struct {
	mu sync.Mutex

	User      *discordgo.User
	GuildList []*bot.GuildSnapshot
	Users     map[string]*discordgo.User
	Ping      time.Duration
	Up        time.Duration

	FetchMembersErr error

	GuildLookups   int
	Snapshots      int
	MemberFetches  int
	UserLookupsFor []string
}

var _ bot.Gateway = (*FakeGateway)(nil)

func New() *FakeGateway {
	return &FakeGateway{Users: make(map[string]*discordgo.User)}
}

func (f *FakeGateway) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.User != nil
}

func (f *FakeGateway) Self() *discordgo.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.User
}

func (f *FakeGateway) HasGuild(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GuildLookups++
	for _, g := range f.GuildList {
		if g.ID == id {
			return true
		}
	}
	return false
}

func (f *FakeGateway) Guild(id string) (*bot.GuildSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GuildLookups++
	for _, g := range f.GuildList {
		if g.ID == id {
			f.Snapshots++
			cp := *g
			return &cp, true
		}
	}
	return nil, false
}

func (f *FakeGateway) Guilds() []*bot.GuildSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*bot.GuildSnapshot, 0, len(f.GuildList))
	for _, g := range f.GuildList {
		out = append(out, &bot.GuildSnapshot{
			ID:          g.ID,
			Name:        g.Name,
			Icon:        g.Icon,
			OwnerID:     g.OwnerID,
			MemberCount: g.MemberCount,
		})
	}
	return out
}

func (f *FakeGateway) Latency() time.Duration { return f.Ping }

func (f *FakeGateway) Uptime() time.Duration { return f.Up }

func (f *FakeGateway) FetchMembers(ctx context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MemberFetches++
	return f.FetchMembersErr
}

func (f *FakeGateway) FetchUser(ctx context.Context, userID string) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UserLookupsFor = append(f.UserLookupsFor, userID)
	u, ok := f.Users[userID]
	if !ok {
		return nil, fmt.Errorf("unknown user %s", userID)
	}
	return u, nil
}
