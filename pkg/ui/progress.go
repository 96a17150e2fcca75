package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps running totals for the conversation being processed
// and for the whole crawl
type StatusTracker struct {
	// Found and Done are for the current conversation
	Found int
	Done  int

	Downloaded int
	Existing   int
	Failed     int
	Bytes      int64
	StartTime  time.Time
}

// NewStatusTracker creates a tracker started at now
func NewStatusTracker(now time.Time) *StatusTracker {
	return &StatusTracker{StartTime: now}
}

// ResetConversation clears the per-conversation counters
func (st *StatusTracker) ResetConversation() {
	st.Found = 0
	st.Done = 0
}

// AddFound records refs discovered on an attachment page
func (st *StatusTracker) AddFound(n int) {
	st.Found += n
}

// RecordDownloaded counts a newly written file
func (st *StatusTracker) RecordDownloaded(size int64) {
	st.Downloaded++
	st.Bytes += size
	st.Done++
}

// RecordExisting counts a file that was already present
func (st *StatusTracker) RecordExisting() {
	st.Existing++
	st.Done++
}

// RecordFailed counts a skipped download
func (st *StatusTracker) RecordFailed() {
	st.Failed++
	st.Done++
}

// Bar renders the current conversation's progress
func (st *StatusTracker) Bar(width int) string {
	filled := 0
	if st.Found > 0 {
		filled = st.Done * width / st.Found
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, st.Done, st.Found)
}

// Rate returns new downloads per minute since start
func (st *StatusTracker) Rate(now time.Time) float64 {
	elapsed := now.Sub(st.StartTime).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(st.Downloaded) / elapsed
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
