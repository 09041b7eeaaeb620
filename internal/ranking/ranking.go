// Package ranking persists the daily-resetting leaderboard and tally.
package ranking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mizuki-t/kanata/internal/model"
)

// Cap is the maximum number of entries kept per day.
const Cap = 10

// MaxNameLen is the rune limit for player names.
const MaxNameLen = 20

// ErrEntryNotFound is returned when a rename targets an entry that no longer
// exists, typically because the day rolled over and purged it.
var ErrEntryNotFound = errors.New("leaderboard entry not found")

// Store abstracts leaderboard persistence so the game can run against SQLite
// in production and an in-memory fake in tests. Every method applies the lazy
// day-rollover reset before touching the ranking.
type Store interface {
	// Load returns today's entries in ranking order.
	Load(ctx context.Context) ([]model.Entry, error)
	// Record appends an entry, re-ranks, truncates to Cap and remembers the
	// entry as last submitted.
	Record(ctx context.Context, entry model.Entry) error
	// Rename updates the name of the entry with the given id in place.
	Rename(ctx context.Context, id, newName string) error
	// LastEntryID returns the id of the most recently recorded entry, or ""
	// when none survives the current day.
	LastEntryID(ctx context.Context) (string, error)
	// AddTally increments today's correct-answer total.
	AddTally(ctx context.Context, correct int) error
	// Tally returns up to lastN most recent daily totals, newest first.
	Tally(ctx context.Context, lastN int) ([]model.TallyRow, error)
}

// DayKey formats the calendar-day identifier for a point in time. Day
// boundaries follow the local timezone.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NewEntry builds a leaderboard entry from a finished run. Names longer than
// MaxNameLen runes are truncated.
func NewEntry(name string, result model.Result, recordedAt time.Time) model.Entry {
	return model.Entry{
		ID:             uuid.NewString(),
		Name:           TrimName(name),
		Score:          result.Score,
		Correct:        result.Correct,
		ElapsedSeconds: result.ElapsedSeconds,
		RecordedAt:     recordedAt,
	}
}

// TrimName enforces the name length limit.
func TrimName(name string) string {
	runes := []rune(name)
	if len(runes) > MaxNameLen {
		runes = runes[:MaxNameLen]
	}
	return string(runes)
}

// Rank sorts entries by score descending; ties break by earlier submission,
// then by name.
func Rank(entries []model.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].RecordedAt.Equal(entries[j].RecordedAt) {
			return entries[i].RecordedAt.Before(entries[j].RecordedAt)
		}
		return entries[i].Name < entries[j].Name
	})
}
