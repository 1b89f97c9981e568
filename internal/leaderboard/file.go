package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/SzKingXz/aurore-backend/internal/logger"
)

// FileSource reads a levels.json mapping of user id to Entry.
type FileSource struct {
	path   string
	logger *logger.Logger
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, logger: logger.Nop()}
}

// WithLogger reports skipped records to l.
func (f *FileSource) WithLogger(l *logger.Logger) *FileSource {
	f.logger = l
	return f
}

func (f *FileSource) Path() string {
	return f.path
}

// GuildEntries returns no rows and no error when the file does not exist.
func (f *FileSource) GuildEntries(ctx context.Context, guildID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}

	rows := make([]Entry, 0)
	for key, raw := range all {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			f.logger.Warn(fmt.Sprintf("Skipping leaderboard record %q in %s: %v", key, f.path, err))
			continue
		}
		if e.GuildID == guildID {
			rows = append(rows, e)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows, nil
}
