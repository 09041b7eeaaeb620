package board

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mizuki-t/kanata/internal/model"
)

func TestRenderBoardEmptyState(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderBoard(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No entries yet today.") {
		t.Fatalf("expected empty-state message, got %q", buf.String())
	}
}

func TestRenderBoardRowsInOrder(t *testing.T) {
	recordedAt := time.Date(2024, 6, 1, 13, 45, 10, 0, time.Local)
	entries := []model.Entry{
		{ID: "a", Name: "たろう", Score: 142.5, Correct: 9, ElapsedSeconds: 47.5, RecordedAt: recordedAt},
		{ID: "b", Name: "hanako", Score: 101.2, Correct: 7, ElapsedSeconds: 68.8, RecordedAt: recordedAt},
	}
	var buf bytes.Buffer
	if err := RenderBoard(&buf, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Today's Top 2", "たろう", "142.5", "hanako", "101.2", "2024-06-01 13:45:10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "たろう") > strings.Index(out, "hanako") {
		t.Fatalf("expected entries in ranking order:\n%s", out)
	}
}

func TestRenderTally(t *testing.T) {
	var buf bytes.Buffer
	rows := []model.TallyRow{
		{Day: "2024-06-02", TotalCorrect: 12},
		{Day: "2024-06-01", TotalCorrect: 4},
	}
	if err := RenderTally(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2024-06-02") || !strings.Contains(out, "12") {
		t.Fatalf("missing tally row:\n%s", out)
	}

	buf.Reset()
	if err := RenderTally(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No tally recorded yet.") {
		t.Fatalf("expected empty-state message, got %q", buf.String())
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Day", "Correct"}
	rows := [][]string{
		{"2024-06-01", "4"},
		{"2024-06-02", "12"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Day        Correct" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "2024-06-01       4" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}

func TestDisplayWidthCountsCells(t *testing.T) {
	if got := displayWidth("たろう"); got != 6 {
		t.Fatalf("expected width 6 for double-width runes, got %d", got)
	}
	if got := displayWidth("abc"); got != 3 {
		t.Fatalf("expected width 3, got %d", got)
	}
}
