// Package model defines shared data structures.
package model

import "time"

// Config defines game settings.
type Config struct {
	QuestionsPath string
	SampleSize    int
	Deadline      time.Duration
	Countdown     int
	DefaultName   string
}

// Question is a single conversion typing exercise. Context is the immutable
// sentence stem, Hiragana the raw continuation the player types, Expected the
// fully converted sentence the input must normalize-equal.
type Question struct {
	Context  string
	Hiragana string
	Expected string
}

// Entry is a persisted leaderboard record.
type Entry struct {
	ID             string
	Name           string
	Score          float64
	Correct        int
	ElapsedSeconds float64
	RecordedAt     time.Time
}

// Result captures a finished game run before it is submitted to the board.
type Result struct {
	Score          float64
	Correct        int
	Total          int
	ElapsedSeconds float64
	Retired        bool
}

// TallyRow is one day's accumulated correct-answer count.
type TallyRow struct {
	Day          string
	TotalCorrect int
}
