package models

import (
	"time"

	"github.com/SzKingXz/aurore-backend/internal/leaderboard"
)

type BotInfo struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   string  `json:"avatar"`
	Servers  int     `json:"servers"`
	Uptime   float64 `json:"uptime"`
	Ping     int64   `json:"ping"`
}

type GuildSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Icon            *string `json:"icon"`
	MemberCount     int     `json:"memberCount"`
	OwnerID         string  `json:"ownerId"`
	HasBot          bool    `json:"hasBot"`
	UserIsOwner     bool    `json:"userIsOwner"`
	UserPermissions string  `json:"userPermissions"`
}

type ServersResponse struct {
	Servers []GuildSummary `json:"servers"`
}

type GuildOwner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MemberCounts struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
}

type ChannelCounts struct {
	Text       int `json:"text"`
	Voice      int `json:"voice"`
	Categories int `json:"categories"`
	Total      int `json:"total"`
}

type RoleSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Members  int    `json:"members"`
	Position int    `json:"position"`
}

type RoleList struct {
	Total int           `json:"total"`
	List  []RoleSummary `json:"list"`
}

type BotStats struct {
	Ping   int64 `json:"ping"`
	Uptime int64 `json:"uptime"`
}

type TopUser struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
	Level    float64 `json:"level"`
	XP       float64 `json:"xp"`
	Messages float64 `json:"messages"`
}

type GuildStats struct {
	TotalMessages float64                  `json:"totalMessages"`
	TopUsers      []TopUser                `json:"topUsers"`
	MessageStats  []leaderboard.HourBucket `json:"messageStats"`
}

// GuildDetail is a point-in-time view over the gateway cache and the
// leaderboard.
type GuildDetail struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Icon       *string       `json:"icon"`
	Owner      GuildOwner    `json:"owner"`
	Members    MemberCounts  `json:"members"`
	Channels   ChannelCounts `json:"channels"`
	Roles      RoleList      `json:"roles"`
	Bot        BotStats      `json:"bot"`
	Stats      GuildStats    `json:"stats"`
	CreatedAt  time.Time     `json:"createdAt"`
	BoostLevel int           `json:"boostLevel"`
	BoostCount int           `json:"boostCount"`
}
