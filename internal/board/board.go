// Package board renders the leaderboard and tally as plain text.
package board

import (
	"fmt"
	"io"

	"github.com/mizuki-t/kanata/internal/model"
)

// RenderBoard prints today's ranking. An empty board renders a distinct
// placeholder instead of a bare table.
func RenderBoard(w io.Writer, entries []model.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries yet today.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Today's Top %d\n", len(entries)); err != nil {
		return err
	}
	headers := []string{"Rank", "Name", "Score", "Correct", "Time (s)", "Recorded"}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			entry.Name,
			fmt.Sprintf("%.1f", entry.Score),
			fmt.Sprintf("%d", entry.Correct),
			fmt.Sprintf("%.2f", entry.ElapsedSeconds),
			entry.RecordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTally prints recent daily correct-answer totals, newest first.
func RenderTally(w io.Writer, rows []model.TallyRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No tally recorded yet.")
		return err
	}
	headers := []string{"Day", "Correct"}
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{row.Day, fmt.Sprintf("%d", row.TotalCorrect)})
	}
	rightAlign := map[int]bool{1: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
