package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mizuki-t/kanata/internal/answer"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	matchedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	contextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.phase {
	case phaseStart:
		content = m.viewStart()
	case phaseCountdown:
		content = countdownStyle.Render(fmt.Sprintf("%d", m.countdown))
	case phaseQuestion, phaseFeedback:
		content = m.viewQuestion()
	case phaseNameEntry:
		content = m.viewNameEntry()
	case phaseBoard:
		content = m.viewBoard()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewStart() string {
	lines := []string{
		titleStyle.Render("kanata"),
		pendingStyle.Render("Type the continuation; the conversion must match the target."),
		"",
	}
	if len(m.entries) > 0 {
		lines = append(lines, m.boardTable().View(), "")
	}
	lines = append(lines, footerStyle.Render("enter: start · q: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) viewQuestion() string {
	q, ok := m.controller.Current()
	if !ok {
		return ""
	}
	preview := m.controller.Preview(string(m.inputRunes))

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Question %d / %d", m.controller.Index()+1, m.controller.Total())),
		"",
		"Target:  " + renderExpected(q.Expected, preview),
		"Typed:   " + renderTyped(q.Context, string(m.inputRunes)),
		"Convert: " + renderPreview(preview),
		"",
		m.renderFeedback(),
		"",
		m.renderGameFooter(),
	}
	return strings.Join(lines, "\n")
}

// renderExpected splits the target at the longest prefix the converted input
// already matches.
func renderExpected(expected, preview string) string {
	if preview == "" {
		return pendingStyle.Render(expected)
	}
	matched := answer.CommonPrefixLen(preview, expected)
	runes := []rune(expected)
	if matched > len(runes) {
		matched = len(runes)
	}
	return matchedStyle.Render(string(runes[:matched])) + pendingStyle.Render(string(runes[matched:]))
}

func renderTyped(context, input string) string {
	rest := strings.TrimPrefix(input, context)
	return contextStyle.Render(context) + matchedStyle.Render(rest)
}

func renderPreview(preview string) string {
	if preview == "" {
		return pendingStyle.Render("-")
	}
	return matchedStyle.Render(preview)
}

func (m *Model) renderFeedback() string {
	if m.feedback == "" {
		return ""
	}
	if m.feedbackCorrect {
		return correctStyle.Render(m.feedback)
	}
	return incorrectStyle.Render(m.feedback)
}

func (m *Model) renderGameFooter() string {
	total := m.controller.Total()
	progress := 0
	if total > 0 {
		progress = (m.controller.Index() + 1) * 100 / total
	}
	remaining := m.deadlineAt.Sub(m.now())
	if remaining < 0 {
		remaining = 0
	}
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		fmt.Sprintf("Elapsed %.1fs", m.elapsed.Seconds()),
		fmt.Sprintf("Deadline %.1fs", remaining.Seconds()),
		"esc: retire",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) viewNameEntry() string {
	heading := "Finished!"
	if m.result.Retired {
		heading = "Retired."
	}
	lines := []string{
		titleStyle.Render(heading),
		fmt.Sprintf("Correct %d / %d", m.result.Correct, m.result.Total),
		fmt.Sprintf("Time %.2fs", m.result.ElapsedSeconds),
		fmt.Sprintf("Score %.1f", m.result.Score),
		"",
		m.nameInput.View(),
	}
	if m.saveNote != "" {
		lines = append(lines, incorrectStyle.Render(m.saveNote))
	}
	lines = append(lines, "", footerStyle.Render("enter: save · esc: skip"))
	return strings.Join(lines, "\n")
}

func (m *Model) viewBoard() string {
	lines := []string{titleStyle.Render("Today's Top 10"), ""}
	if len(m.entries) == 0 {
		lines = append(lines, pendingStyle.Render("No entries yet today."))
	} else {
		lines = append(lines, m.boardTable().View())
	}
	if m.saveNote != "" {
		lines = append(lines, "", incorrectStyle.Render(m.saveNote))
	}
	lines = append(lines, "", footerStyle.Render("enter: play again · q: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) boardTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Name", Width: 22},
		{Title: "Score", Width: 8},
		{Title: "Correct", Width: 8},
		{Title: "Time", Width: 8},
	}
	rows := make([]table.Row, 0, len(m.entries))
	for i, entry := range m.entries {
		name := entry.Name
		if entry.ID == m.lastEntryID {
			name = "* " + name
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			name,
			fmt.Sprintf("%.1f", entry.Score),
			fmt.Sprintf("%d", entry.Correct),
			fmt.Sprintf("%.1fs", entry.ElapsedSeconds),
		})
	}
	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
}
