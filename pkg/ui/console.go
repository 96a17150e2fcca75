package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"vkscraper/pkg/models"
)

// ConsoleReporter prints crawl progress as plain lines.
// In quiet mode only the final summary is printed.
type ConsoleReporter struct {
	mu      sync.Mutex
	out     io.Writer
	quiet   bool
	tracker *StatusTracker
	now     func() time.Time
}

// NewConsoleReporter creates a reporter writing to out
func NewConsoleReporter(out io.Writer, quiet bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:   out,
		quiet: quiet,
		now:   time.Now,
	}
}

func (r *ConsoleReporter) CrawlStarted(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker = NewStatusTracker(r.now())
	r.printf("%s %s\n", Magenta("[RUN]"), Dim(runID))
}

func (r *ConsoleReporter) ConversationBatch(batch int, conversations []models.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("Found %d dialogs%s\n", len(conversations), describeKinds(conversations))
}

func (r *ConsoleReporter) ConversationStarted(c models.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTracker()
	r.tracker.ResetConversation()
	r.printf("Processing dialog with %s %s\n", c.PeerKind, Cyan(fmt.Sprint(c.PeerID)))
}

func (r *ConsoleReporter) AttachmentPage(c models.Conversation, refs []models.AttachmentRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTracker()
	r.tracker.AddFound(len(refs))
	r.printf("Found %d photos\n", len(refs))
}

func (r *ConsoleReporter) Downloaded(c models.Conversation, filename string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTracker()
	r.tracker.RecordDownloaded(size)
	r.printf("  %s %s %s %s\n", Green("✓"), filename, Dim(FormatBytes(size)), r.tracker.Bar(20))
}

func (r *ConsoleReporter) Existing(c models.Conversation, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTracker()
	r.tracker.RecordExisting()
	r.printf("  %s %s %s\n", Dim("="), filename, Dim("already exists"))
}

func (r *ConsoleReporter) Failed(c models.Conversation, url string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTracker()
	r.tracker.RecordFailed()
	r.printf("  %s %s: %v\n", Red("✗"), url, err)
}

func (r *ConsoleReporter) CrawlFinished(stats models.CrawlStats, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTracker()
	now := r.now()
	elapsed := now.Sub(r.tracker.StartTime)

	r.printf("Finished processing %d batch(es) of dialogs\n", stats.ConversationBatches)
	if err != nil {
		fmt.Fprintf(r.out, "%s %v\n", Red("Crawl failed:"), err)
	} else if !r.quiet {
		fmt.Fprintln(r.out, Green("All photos have been downloaded."))
	}

	fmt.Fprintf(r.out, "  %s %d downloaded, %d already present, %d failed • %s in %s (%.1f/min)\n",
		Dim("•"),
		stats.Downloaded,
		stats.Existing,
		stats.Failed,
		FormatBytes(stats.Bytes),
		FormatDuration(elapsed),
		r.tracker.Rate(now),
	)
}

func (r *ConsoleReporter) ensureTracker() {
	if r.tracker == nil {
		r.tracker = NewStatusTracker(r.now())
	}
}

// printf writes progress output, suppressed in quiet mode
func (r *ConsoleReporter) printf(format string, args ...interface{}) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, format, args...)
}

// describeKinds renders " with users" or " with users and chats"
func describeKinds(conversations []models.Conversation) string {
	var kinds []string
	seen := map[models.PeerKind]bool{}
	for _, c := range conversations {
		if !seen[c.PeerKind] {
			seen[c.PeerKind] = true
			kinds = append(kinds, c.PeerKind.Plural())
		}
	}
	if len(kinds) == 0 {
		return ""
	}
	return " with " + strings.Join(kinds, " and ")
}
