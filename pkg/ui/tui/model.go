package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vkscraper/pkg/models"
)

// FileState is the outcome of one attachment
type FileState int

const (
	FileDownloaded FileState = iota
	FileExisting
	FileFailed
)

// FileItem is one entry in the recent files list
type FileItem struct {
	Peer     string
	Filename string
	Size     int64
	State    FileState
	Error    error
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	progress progress.Model

	// Crawl state
	runID        string
	batch        int
	current      *models.Conversation
	found        int
	done         int
	stats        models.CrawlStats
	finished     bool
	err          error
	recent       []FileItem
	maxRecent    int

	sessionStartTime time.Time
	now              func() time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	// onQuit runs when the user quits before the crawl ends
	onQuit func()

	mu sync.RWMutex
}

// NewModel creates a new TUI model
func NewModel() *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentBlue)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return &Model{
		spinner:          s,
		progress:         p,
		maxRecent:        8,
		maxLogMessages:   50,
		sessionStartTime: time.Now(),
		now:              time.Now,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Stats returns a snapshot of the counters
func (m *Model) Stats() models.CrawlStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Finished reports whether the crawl has ended, and how
func (m *Model) Finished() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finished, m.err
}

func (m *Model) startCrawl(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runID = runID
	m.sessionStartTime = m.now()
}

func (m *Model) addBatch(batch, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batch = batch
	m.stats.ConversationBatches = batch
}

func (m *Model) startConversation(c models.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = &c
	m.found = 0
	m.done = 0
	m.stats.Conversations++
}

func (m *Model) addPage(found int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.found += found
	m.stats.Found += found
	m.stats.AttachmentPages++
}

func (m *Model) recordFile(item FileItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done++
	switch item.State {
	case FileDownloaded:
		m.stats.Downloaded++
		m.stats.Bytes += item.Size
	case FileExisting:
		m.stats.Existing++
	case FileFailed:
		m.stats.Failed++
	}

	m.recent = append(m.recent, item)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

func (m *Model) finish(stats models.CrawlStats, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.finished = true
	m.err = err
	m.stats = stats
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = errorRed
	case "WARN":
		color = accentOrange
	case "SUCCESS":
		color = accentGreen
	case "INFO":
		color = accentBlue
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// conversationProgress returns the share of found attachments already handled
func (m *Model) conversationProgress() float64 {
	if m.found == 0 {
		return 0
	}
	p := float64(m.done) / float64(m.found)
	if p > 1 {
		p = 1
	}
	return p
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
