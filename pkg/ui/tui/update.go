package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"vkscraper/pkg/models"
)

// Message types for the TUI

// CrawlStartedMsg is sent when a run begins
type CrawlStartedMsg struct {
	RunID string
}

// BatchMsg is sent for each page of selected conversations
type BatchMsg struct {
	Batch int
	Count int
}

// ConversationMsg is sent when a conversation starts processing
type ConversationMsg struct {
	Conversation models.Conversation
}

// PageMsg is sent for each non-empty attachment page
type PageMsg struct {
	Conversation models.Conversation
	Found        int
}

// FileMsg is sent when an attachment is downloaded, skipped or failed
type FileMsg struct {
	Item FileItem
}

// FinishedMsg is sent when the crawl ends
type FinishedMsg struct {
	Stats models.CrawlStats
	Err   error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width/2-12, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		updated, cmd := m.progress.Update(msg)
		if p, ok := updated.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case CrawlStartedMsg:
		m.startCrawl(msg.RunID)
		m.AddLogMessage("INFO", "Run "+msg.RunID+" started")
		return m, nil

	case BatchMsg:
		m.addBatch(msg.Batch, msg.Count)
		m.AddLogMessage("INFO", fmt.Sprintf("Found %d dialogs", msg.Count))
		return m, nil

	case ConversationMsg:
		m.startConversation(msg.Conversation)
		return m, m.progress.SetPercent(0)

	case PageMsg:
		m.addPage(msg.Found)
		return m, m.progress.SetPercent(m.conversationProgress())

	case FileMsg:
		m.recordFile(msg.Item)
		if msg.Item.State == FileFailed {
			m.AddLogMessage("ERROR", fmt.Sprintf("%s: %v", msg.Item.Filename, msg.Item.Error))
		}
		return m, m.progress.SetPercent(m.conversationProgress())

	case FinishedMsg:
		m.finish(msg.Stats, msg.Err)
		if msg.Err != nil {
			m.AddLogMessage("ERROR", msg.Err.Error())
		} else {
			m.AddLogMessage("SUCCESS", "All photos have been downloaded.")
		}
		return m, tea.Quit

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if done, _ := m.Finished(); !done && m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
