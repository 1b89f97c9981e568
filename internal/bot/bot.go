package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SzKingXz/aurore-backend/config"
	"github.com/SzKingXz/aurore-backend/internal/events"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/bwmarrin/discordgo"
)

const (
	Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences

	memberPageSize = 1000
)

type Bot struct {
	sessions     []*discordgo.Session
	config       *config.Config
	logger       *logger.Logger
	eventHandler *events.Handler
	startedAt    time.Time
	mu           sync.RWMutex
}

var _ Gateway = (*Bot)(nil)

func New(cfg *config.Config, l *logger.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if l == nil {
		return nil, errors.New("logger cannot be nil")
	}

	startedAt := cfg.BotStartTime
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	return &Bot{
		config:       cfg,
		logger:       l,
		eventHandler: events.NewHandler(cfg, l),
		sessions:     make([]*discordgo.Session, 0),
		startedAt:    startedAt,
	}, nil
}

func (b *Bot) Start() error {
	startCtx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	if b == nil {
		return errors.New("bot instance is nil")
	}
	if b.config.Discord.Token == "" {
		return errors.New("discord token is required")
	}

	errChan := make(chan error, 1)
	go func() {
		if b.config.Discord.Sharding.Enabled {
			errChan <- b.startSharded()
		} else {
			errChan <- b.startSingle()
		}
	}()

	select {
	case <-startCtx.Done():
		return errors.New("bot startup timed out")
	case err := <-errChan:
		return err
	}
}

func (b *Bot) startSingle() error {
	session, err := discordgo.New("Bot " + b.config.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}

	b.mu.Lock()
	b.sessions = []*discordgo.Session{session}
	b.mu.Unlock()

	if err := b.setupSession(session, 0, 1); err != nil {
		b.logger.Error("Failed to setup session: " + err.Error())
		return err
	}

	b.logger.Info("Bot started successfully in single mode")
	return nil
}

func (b *Bot) startSharded() error {
	totalShards := b.config.Discord.Sharding.TotalShards
	if totalShards <= 0 {
		return errors.New("invalid shard count")
	}

	b.mu.Lock()
	b.sessions = make([]*discordgo.Session, totalShards)
	b.mu.Unlock()

	var wg sync.WaitGroup
	errChan := make(chan error, totalShards)
	semaphore := make(chan struct{}, 5)

	for i := 0; i < totalShards; i++ {
		wg.Add(1)
		go func(shardID int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			session, err := discordgo.New("Bot " + b.config.Discord.Token)
			if err != nil {
				errChan <- fmt.Errorf("failed to create discord session for shard %d: %w", shardID, err)
				return
			}

			b.mu.Lock()
			b.sessions[shardID] = session
			b.mu.Unlock()

			if err := b.setupSession(session, shardID, totalShards); err != nil {
				errChan <- fmt.Errorf("failed to setup shard %d: %w", shardID, err)
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors starting sharded mode: %w", errors.Join(errs...))
	}

	b.logger.Info(fmt.Sprintf("Bot started successfully in sharded mode (%d shards)", totalShards))
	return nil
}

func (b *Bot) setupSession(session *discordgo.Session, shardID, totalShards int) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}

	session.ShardID = shardID
	session.ShardCount = totalShards
	session.Identify.Intents = Intents
	session.State.TrackPresences = true
	session.State.TrackMembers = true
	session.Client.Timeout = b.config.Server.UpstreamTimeout

	b.eventHandler.Register(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	b.logger.With(map[string]interface{}{
		"shard":  shardID,
		"shards": totalShards,
	}).Info("Gateway session opened")
	return nil
}

func (b *Bot) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	b.mu.RLock()
	sessions := append([]*discordgo.Session(nil), b.sessions...)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	sessionErrors := make(chan error, len(sessions))

	for _, session := range sessions {
		if session == nil {
			continue
		}
		wg.Add(1)
		go func(s *discordgo.Session) {
			defer wg.Done()
			if err := s.Close(); err != nil {
				sessionErrors <- fmt.Errorf("failed to close session: %w", err)
			}
		}(session)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return errors.New("session shutdown timed out")
	case <-done:
	}

	close(sessionErrors)
	var errs []error
	for err := range sessionErrors {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *Bot) primary() *discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.sessions) == 0 {
		return nil
	}
	return b.sessions[0]
}

func (b *Bot) allSessions() []*discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*discordgo.Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		if s != nil && s.State != nil {
			out = append(out, s)
		}
	}
	return out
}

// Connected is true once the primary shard received READY.
func (b *Bot) Connected() bool {
	return b.Self() != nil
}

func (b *Bot) Self() *discordgo.User {
	s := b.primary()
	if s == nil || s.State == nil {
		return nil
	}
	s.State.RLock()
	defer s.State.RUnlock()
	if s.State.User == nil {
		return nil
	}
	u := *s.State.User
	return &u
}

func (b *Bot) HasGuild(id string) bool {
	for _, s := range b.allSessions() {
		if _, err := s.State.Guild(id); err == nil {
			return true
		}
	}
	return false
}

func (b *Bot) Guild(id string) (*GuildSnapshot, bool) {
	for _, s := range b.allSessions() {
		g, err := s.State.Guild(id)
		if err != nil {
			continue
		}
		s.State.RLock()
		snap := snapshotGuild(g, true)
		s.State.RUnlock()
		return snap, true
	}
	return nil, false
}

func (b *Bot) Guilds() []*GuildSnapshot {
	var out []*GuildSnapshot
	for _, s := range b.allSessions() {
		s.State.RLock()
		for _, g := range s.State.Guilds {
			if g != nil && !g.Unavailable {
				out = append(out, snapshotGuild(g, false))
			}
		}
		s.State.RUnlock()
	}
	return out
}

func (b *Bot) Latency() time.Duration {
	s := b.primary()
	if s == nil {
		return 0
	}
	return s.HeartbeatLatency()
}

func (b *Bot) Uptime() time.Duration {
	return time.Since(b.startedAt)
}

// FetchMembers pages through the guild member list and merges every page
// into the state cache.
func (b *Bot) FetchMembers(ctx context.Context, guildID string) error {
	s := b.sessionFor(guildID)
	if s == nil {
		return ErrNotConnected
	}

	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("fetch members of %s: %w", guildID, err)
		}
		for _, m := range page {
			if m == nil || m.User == nil {
				continue
			}
			m.GuildID = guildID
			if err := s.State.MemberAdd(m); err != nil {
				return fmt.Errorf("cache member %s: %w", m.User.ID, err)
			}
			after = m.User.ID
		}
		if len(page) < memberPageSize {
			return nil
		}
	}
}

func (b *Bot) FetchUser(ctx context.Context, userID string) (*discordgo.User, error) {
	s := b.primary()
	if s == nil {
		return nil, ErrNotConnected
	}
	return s.User(userID, discordgo.WithContext(ctx))
}

func (b *Bot) sessionFor(guildID string) *discordgo.Session {
	for _, s := range b.allSessions() {
		if _, err := s.State.Guild(guildID); err == nil {
			return s
		}
	}
	return b.primary()
}
