package leaderboard

import (
	"fmt"
	"sort"
	"time"
)

const TopUsersLimit = 10

// Top returns at most n rows ordered by descending message count. Ties keep
// the input order.
func Top(rows []Entry, n int) []Entry {
	sorted := make([]Entry, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Messages > sorted[j].Messages
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func TotalMessages(rows []Entry) float64 {
	var total float64
	for _, r := range rows {
		total += r.Messages
	}
	return total
}

// Randomizer is satisfied by *math/rand/v2.Rand.
type Randomizer interface {
	IntN(n int) int
}

type HourBucket struct {
	Time        string `json:"time"`
	ActiveUsers int    `json:"activeUsers"`
	Messages    int    `json:"mensajes"`
	Commands    int    `json:"comandos"`
	Approximate bool   `json:"approximate"`
}

// HourlyActivity builds 24 buckets, oldest first, ending at now's hour. A row
// counts toward a bucket when the hour of day of its last message matches.
// With a non-nil rnd the message and command figures are padded with random
// filler and flagged approximate.
func HourlyActivity(rows []Entry, now time.Time, rnd Randomizer) []HourBucket {
	perHour := make(map[int]int, 24)
	for _, r := range rows {
		if r.LastMessage.IsZero() {
			continue
		}
		perHour[r.LastMessage.In(now.Location()).Hour()]++
	}

	buckets := make([]HourBucket, 0, 24)
	for i := 23; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour).Hour()
		active := perHour[hour]

		b := HourBucket{
			Time:        fmt.Sprintf("%02d:00", hour),
			ActiveUsers: active,
			Messages:    active * 10,
			Commands:    active * 2,
		}
		if rnd != nil {
			b.Messages = max(active*10, rnd.IntN(200)+50)
			b.Commands = active*2 + rnd.IntN(30)
			b.Approximate = true
		}
		buckets = append(buckets, b)
	}
	return buckets
}
