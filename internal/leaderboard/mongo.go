package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SzKingXz/aurore-backend/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource reads leaderboard rows from a collection whose documents carry
// the same fields as levels.json.
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoEntry struct {
	GuildID     string     `bson:"guild_id"`
	UserID      string     `bson:"user_id"`
	Level       float64    `bson:"level"`
	XP          float64    `bson:"xp"`
	Messages    float64    `bson:"messages"`
	LastMessage *time.Time `bson:"lastMessage,omitempty"`
}

func NewMongoSource(cfg *config.Config) (*MongoSource, error) {
	uri := cfg.Leaderboard.MongoDB.URI
	uri = strings.Replace(uri, "<db_password>", cfg.Leaderboard.MongoDB.Password, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(cfg.Leaderboard.MongoDB.Database).Collection(cfg.Leaderboard.MongoDB.Collection)
	return &MongoSource{client: client, collection: coll}, nil
}

func (m *MongoSource) GuildEntries(ctx context.Context, guildID string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}})
	cur, err := m.collection.Find(ctx, guildFilter(guildID), opts)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}

	rows := make([]Entry, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, d.toEntry())
	}
	return rows, nil
}

func (m *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func guildFilter(guildID string) bson.M {
	return bson.M{"guild_id": guildID}
}

func (d mongoEntry) toEntry() Entry {
	e := Entry{
		GuildID:  d.GuildID,
		UserID:   d.UserID,
		Level:    d.Level,
		XP:       d.XP,
		Messages: d.Messages,
	}
	if d.LastMessage != nil {
		e.LastMessage = Timestamp{Time: *d.LastMessage}
	}
	return e
}
