package tui

import (
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"vkscraper/pkg/models"
	"vkscraper/pkg/scraper"
)

// TUI runs the dashboard and receives crawl events as a scraper.Observer
type TUI struct {
	program *tea.Program
	model   *Model
	send    func(tea.Msg)
}

var _ scraper.Observer = (*TUI)(nil)

// NewTUI creates a new TUI instance. onQuit is called when the user quits
// before the crawl has finished.
func NewTUI(onQuit func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel()
	model.onQuit = onQuit

	program := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)

	return &TUI{
		program: program,
		model:   model,
		send:    program.Send,
	}
}

// Start runs the TUI until the crawl finishes or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Model exposes the underlying model
func (t *TUI) Model() *Model {
	return t.model
}

// Log sends a log line to the TUI
func (t *TUI) Log(level, message string) {
	t.send(LogMsg{Level: level, Message: message})
}

func (t *TUI) CrawlStarted(runID string) {
	t.send(CrawlStartedMsg{RunID: runID})
}

func (t *TUI) ConversationBatch(batch int, conversations []models.Conversation) {
	t.send(BatchMsg{Batch: batch, Count: len(conversations)})
}

func (t *TUI) ConversationStarted(c models.Conversation) {
	t.send(ConversationMsg{Conversation: c})
}

func (t *TUI) AttachmentPage(c models.Conversation, refs []models.AttachmentRef) {
	t.send(PageMsg{Conversation: c, Found: len(refs)})
}

func (t *TUI) Downloaded(c models.Conversation, filename string, size int64) {
	t.send(FileMsg{Item: FileItem{Peer: c.String(), Filename: filename, Size: size, State: FileDownloaded}})
}

func (t *TUI) Existing(c models.Conversation, filename string) {
	t.send(FileMsg{Item: FileItem{Peer: c.String(), Filename: filename, State: FileExisting}})
}

func (t *TUI) Failed(c models.Conversation, url string, err error) {
	t.send(FileMsg{Item: FileItem{Peer: c.String(), Filename: shortName(url), State: FileFailed, Error: err}})
}

func (t *TUI) CrawlFinished(stats models.CrawlStats, err error) {
	t.send(FinishedMsg{Stats: stats, Err: err})
}

// shortName trims a media URL down to its last path element
func shortName(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if name := path.Base(url); name != "." && name != "/" {
		return name
	}
	return url
}
