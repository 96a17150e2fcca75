package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `╦  ╦╦╔═  ╔═╗╔═╗╦═╗╔═╗╔═╗╔═╗╦═╗
╚╗╔╝╠╩╗  ╚═╗║  ╠╦╝╠═╣╠═╝║╣ ╠╦╝
 ╚╝ ╩ ╩  ╚═╝╚═╝╩╚═╩ ╩╩  ╚═╝╩╚═`

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	width := (m.width - 4) / 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderConversationPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(width),
		m.renderLogsPanel(width),
	)

	sections := []string{
		logoStyle.Width(m.width).Render(logo),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to quit"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStatsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" CRAWL ")

	status := m.spinner.View() + " crawling"
	switch {
	case m.finished && m.err != nil:
		status = errorStyle.Render("✗ failed")
	case m.finished:
		status = successStyle.Render("✓ done")
	}

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
	}

	rows := []string{
		status,
		row("Run:", m.runID),
		row("Elapsed:", formatDuration(m.now().Sub(m.sessionStartTime))),
		row("Batches:", fmt.Sprint(m.stats.ConversationBatches)),
		row("Dialogs:", fmt.Sprint(m.stats.Conversations)),
		row("Found:", fmt.Sprint(m.stats.Found)),
		row("Downloaded:", fmt.Sprintf("%d (%s)", m.stats.Downloaded, FormatBytes(m.stats.Bytes))),
		row("Existing:", fmt.Sprint(m.stats.Existing)),
	}
	if m.stats.Failed > 0 {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("%d failed", m.stats.Failed)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")),
	)
}

func (m *Model) renderConversationPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" DIALOG ")

	if m.current == nil {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Waiting for dialogs...")),
		)
	}

	content := []string{
		fmt.Sprintf("%s %s %d", statsLabelStyle.Render("Peer:"), m.current.PeerKind, m.current.PeerID),
		m.progress.View(),
		statsValueStyle.Render(fmt.Sprintf("%d/%d photos", m.done, m.found)),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m *Model) renderRecentPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" RECENT ")

	if len(m.recent) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Nothing yet")),
		)
	}

	var items []string
	for i := len(m.recent) - 1; i >= 0; i-- {
		item := m.recent[i]
		mark, style := fileStyle(item.State)
		items = append(items, style.Render(mark+" "+item.Filename)+" "+dimStyle.Render(item.Peer))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 6
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		message := log.Message
		if maxLen := width - 25; maxLen > 3 && len(message) > maxLen {
			message = message[:maxLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s",
			logTimestampStyle.Render(log.Time.Format("15:04:05")),
			lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level)),
			message,
		))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  q/Q/ctrl+c - Stop the crawl and quit
  ctrl+l     - Clear the log
  ?          - Toggle this help

  ` + successStyle.Render("✓") + ` downloaded   ` + dimStyle.Render("=") + ` already present   ` + errorStyle.Render("✗") + ` failed
`
	return panelStyle.Width(m.width - 2).Render(help)
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
