package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vkscraper/pkg/logger"
	"vkscraper/pkg/models"
)

const (
	// Dir is the report directory relative to the output root
	Dir = ".vkscraper/runs"

	// LastRunFile always holds the most recent report
	LastRunFile = "last_run.json"

	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Report summarises one crawl run
type Report struct {
	RunID         string                `json:"run_id"`
	Status        string                `json:"status"`
	Error         string                `json:"error,omitempty"`
	StartedAt     time.Time             `json:"started_at"`
	FinishedAt    time.Time             `json:"finished_at"`
	Stats         models.CrawlStats     `json:"stats"`
	Conversations []*ConversationReport `json:"conversations"`
	Failures      []Failure             `json:"failures,omitempty"`
	Version       int                   `json:"version"`
}

// ConversationReport holds per-conversation counters
type ConversationReport struct {
	Peer       string `json:"peer"`
	Found      int    `json:"found"`
	Downloaded int    `json:"downloaded"`
	Existing   int    `json:"existing"`
	Failed     int    `json:"failed"`
	Bytes      int64  `json:"bytes"`
}

// Failure records one download that was skipped after an error
type Failure struct {
	Peer  string `json:"peer"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Writer builds a Report from crawl events and saves it when the crawl ends
type Writer struct {
	dir    string
	logger logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	report  *Report
	current *ConversationReport
	saveErr error
}

// NewWriter creates a Writer that saves under <root>/.vkscraper/runs
func NewWriter(root string, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{
		dir:    filepath.Join(root, Dir),
		logger: log,
		now:    time.Now,
	}
}

func (w *Writer) CrawlStarted(runID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.report = &Report{
		RunID:     runID,
		StartedAt: w.now(),
		Version:   1,
	}
	w.current = nil
	w.saveErr = nil
}

func (w *Writer) ConversationBatch(batch int, conversations []models.Conversation) {}

func (w *Writer) ConversationStarted(c models.Conversation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.report == nil {
		return
	}
	w.current = &ConversationReport{Peer: c.String()}
	w.report.Conversations = append(w.report.Conversations, w.current)
}

func (w *Writer) AttachmentPage(c models.Conversation, refs []models.AttachmentRef) {
	w.update(func(cr *ConversationReport) { cr.Found += len(refs) })
}

func (w *Writer) Downloaded(c models.Conversation, filename string, size int64) {
	w.update(func(cr *ConversationReport) {
		cr.Downloaded++
		cr.Bytes += size
	})
}

func (w *Writer) Existing(c models.Conversation, filename string) {
	w.update(func(cr *ConversationReport) { cr.Existing++ })
}

func (w *Writer) Failed(c models.Conversation, url string, err error) {
	w.update(func(cr *ConversationReport) { cr.Failed++ })

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.report != nil {
		w.report.Failures = append(w.report.Failures, Failure{Peer: c.String(), URL: url, Error: err.Error()})
	}
}

func (w *Writer) CrawlFinished(stats models.CrawlStats, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.report == nil {
		return
	}

	w.report.FinishedAt = w.now()
	w.report.Stats = stats
	w.report.Status = StatusCompleted
	if err != nil {
		w.report.Status = StatusFailed
		w.report.Error = err.Error()
	}

	if saveErr := w.save(w.report); saveErr != nil {
		w.saveErr = saveErr
		w.logger.WithError(saveErr).Warn("Failed to save run report")
	}
}

// Report returns the report of the current or last run
func (w *Writer) Report() *Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.report
}

// Err returns the error from the last save, if any
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveErr
}

// Path returns where the report of runID is stored
func (w *Writer) Path(runID string) string {
	return filepath.Join(w.dir, runID+".json")
}

func (w *Writer) update(fn func(cr *ConversationReport)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil {
		fn(w.current)
	}
}

// save writes the report under its run ID and as last_run.json
func (w *Writer) save(r *Report) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	for _, path := range []string{w.Path(r.RunID), filepath.Join(w.dir, LastRunFile)} {
		if err := writeAtomic(path, data); err != nil {
			return err
		}
	}

	w.logger.DebugWithFields("Run report saved", map[string]interface{}{
		"run_id": r.RunID,
		"path":   w.Path(r.RunID),
	})
	return nil
}

func writeAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync report file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close report file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace report file: %w", err)
	}
	return nil
}

// Load reads a saved report
func Load(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	var r Report
	if err := json.NewDecoder(file).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

// LoadLast reads the most recent report under an output root.
// It returns nil without error when no run has been recorded.
func LoadLast(root string) (*Report, error) {
	r, err := Load(filepath.Join(root, Dir, LastRunFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return r, err
}
