package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/stretchr/testify/require"
)

type fixedRand struct{ n int }

func (f fixedRand) IntN(int) int { return f.n }

func writeLevels(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "levels.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFileSourceFiltersByGuild(t *testing.T) {
	path := writeLevels(t, `{
		"u1": {"guild_id":"G1","user_id":"u1","messages":50,"level":3,"xp":900},
		"u2": {"guild_id":"G2","user_id":"u2","messages":70,"level":4,"xp":1200},
		"u3": {"guild_id":"G1","user_id":"u3","messages":5,"level":1,"xp":40,"lastMessage":"2024-05-01T13:20:00.000Z"}
	}`)

	rows, err := NewFileSource(path).GuildEntries(context.Background(), "G1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "u1", rows[0].UserID)
	require.Equal(t, float64(50), rows[0].Messages)
	require.True(t, rows[0].LastMessage.IsZero())
	require.Equal(t, 13, rows[1].LastMessage.UTC().Hour())
}

func TestFileSourceMissingFileIsEmpty(t *testing.T) {
	rows, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).GuildEntries(context.Background(), "G1")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestFileSourceBrokenFile(t *testing.T) {
	path := writeLevels(t, `{"u1": {`)
	_, err := NewFileSource(path).GuildEntries(context.Background(), "G1")
	require.Error(t, err)
}

func TestTimestampFormats(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"lastMessage": 1714569600000}`), &e))
	require.Equal(t, int64(1714569600000), e.LastMessage.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`{"lastMessage": null}`), &e))
	require.True(t, e.LastMessage.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"lastMessage": "yesterday"}`), &e))
	require.True(t, e.LastMessage.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"lastMessage": "2024-05-01T13:20:00"}`), &e))
	require.Equal(t, 13, e.LastMessage.Hour())
}

func TestFileSourceToleratesBadRecords(t *testing.T) {
	path := writeLevels(t, `{
		"u1": {"guild_id":"G1","user_id":"u1","messages":50,"level":3,"xp":900},
		"u2": {"guild_id":"G1","user_id":"u2","messages":20,"lastMessage":"Wed May 01 2024 13:20:00 GMT+0000"},
		"u3": {"guild_id":"G1","user_id":"u3","messages":10,"lastMessage":"2024-05-01 13:20:00"},
		"version": 2,
		"u4": {"guild_id":"G1","user_id":"u4","messages":"lots"}
	}`)

	var buf bytes.Buffer
	src := NewFileSource(path).WithLogger(logger.NewWithWriter(&buf, "warn"))

	rows, err := src.GuildEntries(context.Background(), "G1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, float64(80), TotalMessages(rows))
	require.True(t, rows[1].LastMessage.IsZero())
	require.False(t, rows[2].LastMessage.IsZero())
	require.Len(t, Top(rows, TopUsersLimit), 3)

	require.Contains(t, buf.String(), `\"version\"`)
	require.Contains(t, buf.String(), `\"u4\"`)
}

func TestTopSortsAndTruncates(t *testing.T) {
	rows := make([]Entry, 0, 15)
	for i := 0; i < 15; i++ {
		rows = append(rows, Entry{UserID: string(rune('a' + i)), Messages: float64(i)})
	}

	top := Top(rows, TopUsersLimit)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		require.GreaterOrEqual(t, top[i-1].Messages, top[i].Messages)
	}
	require.Equal(t, float64(14), top[0].Messages)
	require.Equal(t, float64(0), rows[0].Messages, "input must not be reordered")

	require.Len(t, Top(rows[:3], TopUsersLimit), 3)
	require.Empty(t, Top(nil, TopUsersLimit))
}

func TestTotalMessages(t *testing.T) {
	require.Equal(t, float64(55), TotalMessages([]Entry{{Messages: 50}, {Messages: 5}}))
	require.Zero(t, TotalMessages(nil))
}

func TestHourlyActivityHonest(t *testing.T) {
	now := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	rows := []Entry{
		{LastMessage: Timestamp{time.Date(2024, 4, 28, 14, 5, 0, 0, time.UTC)}},
		{LastMessage: Timestamp{time.Date(2024, 5, 1, 14, 59, 0, 0, time.UTC)}},
		{LastMessage: Timestamp{time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)}},
		{},
	}

	buckets := HourlyActivity(rows, now, nil)
	require.Len(t, buckets, 24)
	require.Equal(t, "15:00", buckets[0].Time)
	require.Equal(t, "14:00", buckets[23].Time)

	last := buckets[23]
	require.Equal(t, 2, last.ActiveUsers)
	require.Equal(t, 20, last.Messages)
	require.Equal(t, 4, last.Commands)
	require.False(t, last.Approximate)

	for _, b := range buckets {
		if b.Time == "03:00" {
			require.Equal(t, 1, b.ActiveUsers)
		}
	}
}

func TestHourlyActivitySynthetic(t *testing.T) {
	now := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	rows := make([]Entry, 0, 30)
	for i := 0; i < 30; i++ {
		rows = append(rows, Entry{LastMessage: Timestamp{now}})
	}

	buckets := HourlyActivity(rows, now, fixedRand{n: 7})
	last := buckets[23]
	require.True(t, last.Approximate)
	require.Equal(t, 300, last.Messages, "real signal wins when larger than filler")
	require.Equal(t, 67, last.Commands)

	first := buckets[0]
	require.Equal(t, 57, first.Messages)
	require.Equal(t, 7, first.Commands)
}

func TestMongoDocumentConversion(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	e := mongoEntry{GuildID: "G1", UserID: "u1", Messages: 12, LastMessage: &ts}.toEntry()
	require.Equal(t, "u1", e.UserID)
	require.Equal(t, ts, e.LastMessage.Time)

	require.True(t, mongoEntry{UserID: "u2"}.toEntry().LastMessage.IsZero())
	require.Equal(t, "G1", guildFilter("G1")["guild_id"])
}
