// Package tui provides the Bubble Tea game interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mizuki-t/kanata/internal/model"
	"github.com/mizuki-t/kanata/internal/question"
	"github.com/mizuki-t/kanata/internal/ranking"
	"github.com/mizuki-t/kanata/internal/session"
)

type phase int

const (
	phaseStart phase = iota
	phaseCountdown
	phaseQuestion
	phaseFeedback
	phaseNameEntry
	phaseBoard
)

const (
	elapsedTickInterval = 100 * time.Millisecond
	advanceDelay        = 800 * time.Millisecond
)

type tickMsg time.Time

type countdownMsg time.Time

// expireMsg and advanceMsg carry the generation they were scheduled for so a
// message that outlives its question is discarded.
type expireMsg struct {
	generation uint64
}

type advanceMsg struct {
	generation uint64
}

// Model implements the Bubble Tea game UI.
type Model struct {
	cfg        model.Config
	controller *session.Controller
	store      ranking.Store
	bank       question.Bank
	now        func() time.Time

	width  int
	height int

	phase      phase
	countdown  int
	inputRunes []rune

	elapsed    time.Duration
	deadlineAt time.Time

	feedback        string
	feedbackCorrect bool

	result    model.Result
	nameInput textinput.Model
	saveNote  string

	entries     []model.Entry
	lastEntryID string
}

// NewModel constructs a game model.
func NewModel(cfg model.Config, st ranking.Store, bank question.Bank) *Model {
	return NewModelWithClock(cfg, st, bank, session.New(bank.Conversions), time.Now)
}

// NewModelWithClock allows a deterministic controller and clock in tests.
func NewModelWithClock(cfg model.Config, st ranking.Store, bank question.Bank, controller *session.Controller, now func() time.Time) *Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "name"
	nameInput.CharLimit = ranking.MaxNameLen

	m := &Model{
		cfg:        cfg,
		controller: controller,
		store:      st,
		bank:       bank,
		now:        now,
		phase:      phaseStart,
		nameInput:  nameInput,
	}
	m.reloadBoard()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m.handleTick()
	case countdownMsg:
		return m.handleCountdown()
	case expireMsg:
		return m.handleExpire(msg.generation)
	case advanceMsg:
		return m.handleAdvance(msg.generation)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.phase {
	case phaseStart:
		switch msg.Type {
		case tea.KeyEnter:
			return m.beginCountdown()
		case tea.KeyEsc:
			return m, tea.Quit
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case phaseCountdown:
		if msg.Type == tea.KeyEsc {
			m.phase = phaseStart
			return m, nil
		}
		return m, nil
	case phaseQuestion:
		return m.handleQuestionKey(msg)
	case phaseFeedback:
		// Input between judgment and the next question is dropped.
		if msg.Type == tea.KeyEsc {
			return m.retire()
		}
		return m, nil
	case phaseNameEntry:
		return m.handleNameKey(msg)
	case phaseBoard:
		switch msg.Type {
		case tea.KeyEnter:
			return m.beginCountdown()
		case tea.KeyEsc:
			return m, tea.Quit
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) beginCountdown() (tea.Model, tea.Cmd) {
	m.countdown = m.cfg.Countdown
	m.saveNote = ""
	if m.countdown <= 0 {
		return m.startRun()
	}
	m.phase = phaseCountdown
	return m, countdownCmd()
}

func (m *Model) handleCountdown() (tea.Model, tea.Cmd) {
	if m.phase != phaseCountdown {
		return m, nil
	}
	m.countdown--
	if m.countdown > 0 {
		return m, countdownCmd()
	}
	return m.startRun()
}

func (m *Model) startRun() (tea.Model, tea.Cmd) {
	if err := m.controller.Start(m.bank.Questions, m.cfg.SampleSize); err != nil {
		logErrf("failed to start game: %v\n", err)
		m.phase = phaseStart
		return m, nil
	}
	m.elapsed = 0
	m.loadQuestion()
	return m, tea.Batch(tickCmd(), m.deadlineCmd())
}

// loadQuestion seeds the input with the context and arms the deadline clock
// for the current question slot.
func (m *Model) loadQuestion() {
	q, ok := m.controller.Current()
	if !ok {
		return
	}
	m.inputRunes = []rune(q.Context)
	m.deadlineAt = m.now().Add(m.cfg.Deadline)
	m.feedback = ""
	m.phase = phaseQuestion
}

func (m *Model) handleQuestionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q, ok := m.controller.Current()
	if !ok {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		return m.retire()
	case tea.KeyBackspace, tea.KeyDelete:
		// The context prefix is immutable; deletions stop at its edge.
		if len(m.inputRunes) > len([]rune(q.Context)) {
			m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
		}
	case tea.KeySpace:
		m.inputRunes = append(m.inputRunes, ' ')
	case tea.KeyRunes:
		m.inputRunes = append(m.inputRunes, msg.Runes...)
	default:
		return m, nil
	}
	m.snapPrefix(q.Context)
	return m.judge()
}

// snapPrefix restores the immutable context when the input no longer starts
// with it. Silent correction, not an error.
func (m *Model) snapPrefix(context string) {
	if !strings.HasPrefix(string(m.inputRunes), context) {
		m.inputRunes = []rune(context)
	}
}

func (m *Model) judge() (tea.Model, tea.Cmd) {
	generation := m.controller.Generation()
	switch m.controller.Judge(string(m.inputRunes)) {
	case session.VerdictCorrect:
		m.phase = phaseFeedback
		m.feedback = "Correct! Moving on."
		m.feedbackCorrect = true
		return m, advanceCmd(generation)
	case session.VerdictIncorrect:
		// Transient; the player keeps editing.
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleExpire(generation uint64) (tea.Model, tea.Cmd) {
	if !m.controller.Expire(generation) {
		return m, nil
	}
	m.phase = phaseFeedback
	m.feedback = "Time's up."
	m.feedbackCorrect = false
	return m, advanceCmd(generation)
}

func (m *Model) handleAdvance(generation uint64) (tea.Model, tea.Cmd) {
	if !m.controller.Advance(generation) {
		return m, nil
	}
	if !m.controller.Active() {
		return m.finishRun()
	}
	m.loadQuestion()
	return m, m.deadlineCmd()
}

func (m *Model) handleTick() (tea.Model, tea.Cmd) {
	if !m.controller.Active() {
		return m, nil
	}
	m.elapsed = m.controller.Elapsed()
	return m, tickCmd()
}

func (m *Model) retire() (tea.Model, tea.Cmd) {
	result, ok := m.controller.Retire()
	if !ok {
		return m, nil
	}
	return m.finishWith(result)
}

func (m *Model) finishRun() (tea.Model, tea.Cmd) {
	result, ok := m.controller.Result()
	if !ok {
		return m, nil
	}
	return m.finishWith(result)
}

func (m *Model) finishWith(result model.Result) (tea.Model, tea.Cmd) {
	m.result = result
	m.elapsed = time.Duration(result.ElapsedSeconds * float64(time.Second))
	if result.Correct > 0 {
		if err := m.store.AddTally(context.Background(), result.Correct); err != nil {
			logErrf("failed to update tally: %v\n", err)
		}
	}
	m.nameInput.SetValue(m.cfg.DefaultName)
	m.nameInput.Focus()
	m.saveNote = ""
	m.phase = phaseNameEntry
	return m, textinput.Blink
}

func (m *Model) handleNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Skip saving.
		m.reloadBoard()
		m.phase = phaseBoard
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.saveNote = "Enter a name to join the board."
			return m, nil
		}
		m.saveEntry(name)
		m.phase = phaseBoard
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// saveEntry records the result. A failed write keeps the in-memory board
// authoritative for the rest of the process.
func (m *Model) saveEntry(name string) {
	entry := ranking.NewEntry(name, m.result, m.now())
	if err := m.store.Record(context.Background(), entry); err != nil {
		logErrf("failed to save leaderboard entry: %v\n", err)
		m.saveNote = "Could not save to the board; showing this run in memory only."
		m.entries = append(m.entries, entry)
		ranking.Rank(m.entries)
		if len(m.entries) > ranking.Cap {
			m.entries = m.entries[:ranking.Cap]
		}
		m.lastEntryID = entry.ID
		return
	}
	m.lastEntryID = entry.ID
	m.reloadBoard()
}

func (m *Model) reloadBoard() {
	entries, err := m.store.Load(context.Background())
	if err != nil {
		logErrf("failed to load leaderboard: %v\n", err)
		return
	}
	m.entries = entries
}

func tickCmd() tea.Cmd {
	return tea.Tick(elapsedTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func countdownCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return countdownMsg(t)
	})
}

func (m *Model) deadlineCmd() tea.Cmd {
	generation := m.controller.Generation()
	return tea.Tick(m.cfg.Deadline, func(time.Time) tea.Msg {
		return expireMsg{generation: generation}
	})
}

func advanceCmd(generation uint64) tea.Cmd {
	return tea.Tick(advanceDelay, func(time.Time) tea.Msg {
		return advanceMsg{generation: generation}
	})
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
