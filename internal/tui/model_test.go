package tui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mizuki-t/kanata/internal/answer"
	"github.com/mizuki-t/kanata/internal/model"
	"github.com/mizuki-t/kanata/internal/question"
	"github.com/mizuki-t/kanata/internal/ranking"
	"github.com/mizuki-t/kanata/internal/session"
)

func testBank() question.Bank {
	return question.Bank{
		Questions: []model.Question{
			{Context: "きょうの", Hiragana: "てんき", Expected: "きょうの天気"},
			{Context: "わたしの", Hiragana: "しゅみ", Expected: "わたしの趣味"},
		},
		Conversions: answer.Table{
			"てんき": {"きょうの": "天気"},
			"しゅみ": {"わたしの": "趣味"},
		},
	}
}

func newTestModel(t *testing.T, store ranking.Store) *Model {
	t.Helper()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	now := func() time.Time { return base }
	bank := testBank()
	controller := session.NewWithClock(bank.Conversions, now, rand.New(rand.NewSource(1)))
	cfg := model.Config{
		SampleSize: 2,
		Deadline:   8 * time.Second,
		Countdown:  0,
	}
	if store == nil {
		store = ranking.NewMemoryStoreWithClock(now)
	}
	return NewModelWithClock(cfg, store, bank, controller, now)
}

func startGame(t *testing.T, m *Model) {
	t.Helper()
	if _, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}); m.phase != phaseQuestion {
		t.Fatalf("expected question phase after start, got %d", m.phase)
	}
}

func typeRunes(m *Model, s string) {
	for _, r := range s {
		_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestInputSeededWithContext(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	q, ok := m.controller.Current()
	if !ok {
		t.Fatalf("expected a current question")
	}
	if string(m.inputRunes) != q.Context {
		t.Fatalf("expected input seeded with context %q, got %q", q.Context, string(m.inputRunes))
	}
}

func TestBackspaceStopsAtContext(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	q, _ := m.controller.Current()

	typeRunes(m, "て")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if string(m.inputRunes) != q.Context {
		t.Fatalf("expected backspace to the context edge, got %q", string(m.inputRunes))
	}
	// Further deletions must not eat the context.
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if string(m.inputRunes) != q.Context {
		t.Fatalf("context prefix must be immutable, got %q", string(m.inputRunes))
	}
}

func TestCorrectAnswerAdvances(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	q, _ := m.controller.Current()
	generation := m.controller.Generation()

	typeRunes(m, q.Hiragana)
	if m.phase != phaseFeedback {
		t.Fatalf("expected feedback phase after a correct answer, got %d", m.phase)
	}
	if !m.feedbackCorrect {
		t.Fatalf("expected correct feedback")
	}
	if m.controller.CorrectCount() != 1 {
		t.Fatalf("expected one credited answer, got %d", m.controller.CorrectCount())
	}

	_, _ = m.Update(advanceMsg{generation: generation})
	if m.controller.Index() != 1 {
		t.Fatalf("expected index 1 after advance, got %d", m.controller.Index())
	}
	if m.phase != phaseQuestion {
		t.Fatalf("expected next question, got phase %d", m.phase)
	}
	next, _ := m.controller.Current()
	if string(m.inputRunes) != next.Context {
		t.Fatalf("expected input reseeded with next context, got %q", string(m.inputRunes))
	}
}

func TestExpiryAdvancesWithZeroCredit(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	generation := m.controller.Generation()

	_, _ = m.Update(expireMsg{generation: generation})
	if m.phase != phaseFeedback {
		t.Fatalf("expected feedback phase after expiry, got %d", m.phase)
	}
	if m.feedbackCorrect {
		t.Fatalf("expected expiry feedback, not correct feedback")
	}
	_, _ = m.Update(advanceMsg{generation: generation})
	if m.controller.Index() != 1 {
		t.Fatalf("expected index 1, got %d", m.controller.Index())
	}
	if m.controller.CorrectCount() != 0 {
		t.Fatalf("expired question must not be credited")
	}
}

func TestStaleExpiryIgnoredAfterCorrectAnswer(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	q, _ := m.controller.Current()
	generation := m.controller.Generation()

	typeRunes(m, q.Hiragana)
	// Deadline fires in the same window the answer was judged.
	_, _ = m.Update(expireMsg{generation: generation})
	_, _ = m.Update(advanceMsg{generation: generation})

	if m.controller.Index() != 1 {
		t.Fatalf("index must advance exactly once, got %d", m.controller.Index())
	}
	if m.controller.CorrectCount() != 1 {
		t.Fatalf("expected exactly one credit, got %d", m.controller.CorrectCount())
	}
	// The old question's timer firing now is stale.
	_, _ = m.Update(expireMsg{generation: generation})
	if m.controller.Index() != 1 {
		t.Fatalf("stale expiry must not advance, got index %d", m.controller.Index())
	}
}

func TestFullRunReachesNameEntryAndSaves(t *testing.T) {
	store := ranking.NewMemoryStoreWithClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	})
	m := newTestModel(t, store)
	startGame(t, m)

	for i := 0; i < 2; i++ {
		q, ok := m.controller.Current()
		if !ok {
			t.Fatalf("expected question %d", i)
		}
		generation := m.controller.Generation()
		typeRunes(m, q.Hiragana)
		_, _ = m.Update(advanceMsg{generation: generation})
	}
	if m.phase != phaseNameEntry {
		t.Fatalf("expected name entry after the last question, got phase %d", m.phase)
	}
	if m.result.Correct != 2 || m.result.Total != 2 {
		t.Fatalf("unexpected result: %+v", m.result)
	}

	typeRunes(m, "たろう")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.phase != phaseBoard {
		t.Fatalf("expected board phase after save, got %d", m.phase)
	}
	entries, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "たろう" {
		t.Fatalf("expected saved entry, got %+v", entries)
	}
	if m.lastEntryID != entries[0].ID {
		t.Fatalf("expected last-entry pointer to match saved entry")
	}
	// Tally recorded the correct count.
	tally, err := store.Tally(context.Background(), 1)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(tally) != 1 || tally[0].TotalCorrect != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestEmptyNameRejected(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	q, _ := m.controller.Current()
	generation := m.controller.Generation()
	typeRunes(m, q.Hiragana)
	_, _ = m.Update(advanceMsg{generation: generation})
	q, _ = m.controller.Current()
	generation = m.controller.Generation()
	typeRunes(m, q.Hiragana)
	_, _ = m.Update(advanceMsg{generation: generation})

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.phase != phaseNameEntry {
		t.Fatalf("empty name must not leave name entry, got phase %d", m.phase)
	}
	if m.saveNote == "" {
		t.Fatalf("expected a notice about the empty name")
	}
}

func TestRetireGoesToNameEntryWithZeroScore(t *testing.T) {
	m := newTestModel(t, nil)
	startGame(t, m)
	typeRunes(m, "て")

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.phase != phaseNameEntry {
		t.Fatalf("expected name entry after retire, got phase %d", m.phase)
	}
	if !m.result.Retired || m.result.Score != 0 {
		t.Fatalf("expected retired zero-score result: %+v", m.result)
	}
}

// failingStore rejects writes to exercise the in-memory fallback.
type failingStore struct {
	*ranking.MemoryStore
}

func (s *failingStore) Record(context.Context, model.Entry) error {
	return fmt.Errorf("disk full")
}

func TestFailedSaveKeepsEntryInMemory(t *testing.T) {
	store := &failingStore{MemoryStore: ranking.NewMemoryStore()}
	m := newTestModel(t, store)
	startGame(t, m)
	for i := 0; i < 2; i++ {
		q, _ := m.controller.Current()
		generation := m.controller.Generation()
		typeRunes(m, q.Hiragana)
		_, _ = m.Update(advanceMsg{generation: generation})
	}
	typeRunes(m, "たろう")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.phase != phaseBoard {
		t.Fatalf("failed save must not block the board, got phase %d", m.phase)
	}
	if m.saveNote == "" {
		t.Fatalf("expected a non-blocking notice about the failed save")
	}
	found := false
	for _, entry := range m.entries {
		if entry.Name == "たろう" {
			found = true
		}
	}
	if !found {
		t.Fatalf("in-memory board must keep the entry after a failed write: %+v", m.entries)
	}
}

func TestViewShowsConversionPreview(t *testing.T) {
	m := newTestModel(t, nil)
	m.width = 100
	m.height = 30
	startGame(t, m)
	q, _ := m.controller.Current()
	typeRunes(m, q.Hiragana)
	// The feedback view still renders the question with the converted text.
	out := m.View()
	if !strings.Contains(out, q.Expected) {
		t.Fatalf("expected view to contain the converted text %q:\n%s", q.Expected, out)
	}
}
