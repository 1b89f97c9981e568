package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Entry is one per-user record written by the leveling bot. Numbers are
// JSON doubles because the producer is a JavaScript process.
type Entry struct {
	GuildID     string    `json:"guild_id"`
	UserID      string    `json:"user_id"`
	Level       float64   `json:"level"`
	XP          float64   `json:"xp"`
	Messages    float64   `json:"messages"`
	LastMessage Timestamp `json:"lastMessage"`
}

// Source yields the leaderboard rows of one guild. Implementations re-read
// their backing store on every call.
type Source interface {
	GuildEntries(ctx context.Context, guildID string) ([]Entry, error)
}

// Timestamp accepts an RFC 3339 string, a zone-less ISO date (local time),
// epoch milliseconds, or null. Anything else decodes to the zero time so the
// row is kept but never counted as activity.
type Timestamp struct {
	time.Time
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		if ms, err := strconv.ParseFloat(string(data), 64); err == nil {
			t.Time = time.UnixMilli(int64(ms))
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
