package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/config"
	"github.com/SzKingXz/aurore-backend/internal/bot"
	"github.com/SzKingXz/aurore-backend/internal/leaderboard"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/bwmarrin/discordgo"
)

const (
	UnknownUsername = "Unknown User"
	UnknownOwner    = "Unknown"
	maxListedRoles  = 20
)

// GuildService builds read models over the gateway cache and the leaderboard.
type GuildService struct {
	gateway bot.Gateway
	source  leaderboard.Source
	logger  *logger.Logger
	rnd     leaderboard.Randomizer
	timeout time.Duration
	now     func() time.Time
}

func NewGuildService(gw bot.Gateway, src leaderboard.Source, l *logger.Logger, cfg *config.Config) *GuildService {
	s := &GuildService{
		gateway: gw,
		source:  src,
		logger:  l,
		timeout: cfg.Server.UpstreamTimeout,
		now:     time.Now,
	}
	if cfg.SyntheticActivity() {
		s.rnd = sharedRand{}
	}
	return s
}

// WithClock and WithRandomizer are test seams.
func (s *GuildService) WithClock(now func() time.Time) *GuildService {
	s.now = now
	return s
}

func (s *GuildService) WithRandomizer(r leaderboard.Randomizer) *GuildService {
	s.rnd = r
	return s
}

type sharedRand struct{}

func (sharedRand) IntN(n int) int { return rand.IntN(n) }

func (s *GuildService) BotInfo() (*models.BotInfo, error) {
	self := s.gateway.Self()
	if self == nil {
		return nil, bot.ErrNotConnected
	}
	return &models.BotInfo{
		ID:       self.ID,
		Username: self.Username,
		Avatar:   self.AvatarURL(""),
		Servers:  len(s.gateway.Guilds()),
		Uptime:   s.gateway.Uptime().Seconds(),
		Ping:     s.gateway.Latency().Milliseconds(),
	}, nil
}

// UserServers keeps the cached guilds that also appear in the user's guild
// list, in gateway order.
func (s *GuildService) UserServers(userGuilds []*discordgo.UserGuild) ([]models.GuildSummary, error) {
	if !s.gateway.Connected() {
		return nil, bot.ErrNotConnected
	}

	byID := make(map[string]*discordgo.UserGuild, len(userGuilds))
	for _, ug := range userGuilds {
		if ug != nil {
			byID[ug.ID] = ug
		}
	}

	servers := make([]models.GuildSummary, 0)
	for _, g := range s.gateway.Guilds() {
		ug, ok := byID[g.ID]
		if !ok {
			continue
		}
		servers = append(servers, models.GuildSummary{
			ID:              g.ID,
			Name:            g.Name,
			Icon:            optional(g.IconURL("256")),
			MemberCount:     g.MemberCount,
			OwnerID:         g.OwnerID,
			HasBot:          true,
			UserIsOwner:     ug.Owner,
			UserPermissions: strconv.FormatInt(ug.Permissions, 10),
		})
	}
	return servers, nil
}

// Detail aggregates one guild. Member fetch, leaderboard and per-user lookup
// failures degrade the result instead of failing it.
func (s *GuildService) Detail(ctx context.Context, guildID string) (*models.GuildDetail, error) {
	if !s.gateway.Connected() {
		return nil, bot.ErrNotConnected
	}
	if !s.gateway.HasGuild(guildID) {
		return nil, bot.ErrGuildNotFound
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	if err := s.gateway.FetchMembers(fetchCtx, guildID); err != nil {
		s.logger.Warn(fmt.Sprintf("Could not fetch all members of %s: %v", guildID, err))
	}
	cancel()

	guild, ok := s.gateway.Guild(guildID)
	if !ok {
		return nil, bot.ErrGuildNotFound
	}

	rows, err := s.source.GuildEntries(ctx, guildID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Error reading leaderboard for %s: %v", guildID, err))
		rows = nil
	}

	online := countOnline(guild)
	detail := &models.GuildDetail{
		ID:   guild.ID,
		Name: guild.Name,
		Icon: optional(guild.IconURL("512")),
		Owner: models.GuildOwner{
			ID:   guild.OwnerID,
			Name: ownerName(guild),
		},
		Members: models.MemberCounts{
			Total:   guild.MemberCount,
			Online:  online,
			Offline: len(guild.Members) - online,
		},
		Channels: countChannels(guild.Channels),
		Roles:    listRoles(guild),
		Bot: models.BotStats{
			Ping:   s.gateway.Latency().Milliseconds(),
			Uptime: int64(s.gateway.Uptime().Seconds()),
		},
		Stats: models.GuildStats{
			TotalMessages: leaderboard.TotalMessages(rows),
			TopUsers:      s.resolveTopUsers(ctx, leaderboard.Top(rows, leaderboard.TopUsersLimit)),
			MessageStats:  leaderboard.HourlyActivity(rows, s.now(), s.rnd),
		},
		CreatedAt:  guild.CreatedAt(),
		BoostLevel: int(guild.PremiumTier),
		BoostCount: guild.PremiumSubscriptionCount,
	}
	return detail, nil
}

// resolveTopUsers looks every user up concurrently; a failed lookup only
// affects its own row.
func (s *GuildService) resolveTopUsers(ctx context.Context, rows []leaderboard.Entry) []models.TopUser {
	out := make([]models.TopUser, len(rows))

	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row leaderboard.Entry) {
			defer wg.Done()

			top := models.TopUser{
				UserID:   row.UserID,
				Username: UnknownUsername,
				Level:    row.Level,
				XP:       row.XP,
				Messages: row.Messages,
			}

			lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			u, err := s.gateway.FetchUser(lookupCtx, row.UserID)
			if err != nil || u == nil {
				s.logger.Debug(fmt.Sprintf("User lookup failed for %s: %v", row.UserID, err))
			} else {
				avatar := u.AvatarURL("")
				top.Username = u.Username
				top.Avatar = &avatar
			}
			out[i] = top
		}(i, row)
	}
	wg.Wait()

	return out
}

func countOnline(g *bot.GuildSnapshot) int {
	status := make(map[string]discordgo.Status, len(g.Presences))
	for _, p := range g.Presences {
		if p.User != nil {
			status[p.User.ID] = p.Status
		}
	}

	online := 0
	for _, m := range g.Members {
		if m.User == nil {
			continue
		}
		switch status[m.User.ID] {
		case discordgo.StatusOnline, discordgo.StatusIdle, discordgo.StatusDoNotDisturb:
			online++
		}
	}
	return online
}

func countChannels(channels []discordgo.Channel) models.ChannelCounts {
	counts := models.ChannelCounts{Total: len(channels)}
	for _, c := range channels {
		switch c.Type {
		case discordgo.ChannelTypeGuildText:
			counts.Text++
		case discordgo.ChannelTypeGuildVoice:
			counts.Voice++
		case discordgo.ChannelTypeGuildCategory:
			counts.Categories++
		}
	}
	return counts
}

func listRoles(g *bot.GuildSnapshot) models.RoleList {
	holders := make(map[string]int)
	for _, m := range g.Members {
		for _, roleID := range m.Roles {
			holders[roleID]++
		}
	}

	roles := make([]models.RoleSummary, 0, len(g.Roles))
	for _, r := range g.Roles {
		if r.ID == g.ID || r.Name == "@everyone" {
			continue
		}
		roles = append(roles, models.RoleSummary{
			ID:       r.ID,
			Name:     r.Name,
			Color:    fmt.Sprintf("#%06x", r.Color),
			Members:  holders[r.ID],
			Position: r.Position,
		})
	}
	sort.SliceStable(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })

	list := roles
	if len(list) > maxListedRoles {
		list = list[:maxListedRoles]
	}
	return models.RoleList{Total: len(roles), List: list}
}

func ownerName(g *bot.GuildSnapshot) string {
	for _, m := range g.Members {
		if m.User != nil && m.User.ID == g.OwnerID {
			return m.User.Username
		}
	}
	return UnknownOwner
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
