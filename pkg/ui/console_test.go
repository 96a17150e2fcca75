package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkscraper/pkg/models"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestConsoleReporterLines(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewConsoleReporter(&buf, false)
	r.now = fixedClock(start, start.Add(2*time.Minute))

	peer := models.Conversation{PeerID: 42, PeerKind: models.PeerUser}
	r.CrawlStarted("run-1")
	r.ConversationBatch(1, []models.Conversation{peer, {PeerID: 7, PeerKind: models.PeerUser}})
	r.ConversationStarted(peer)
	r.AttachmentPage(peer, []models.AttachmentRef{{SourceURL: "a"}, {SourceURL: "b"}})
	r.Downloaded(peer, "a.jpg", 2048)
	r.Existing(peer, "b.jpg")
	r.CrawlFinished(models.CrawlStats{ConversationBatches: 1, Downloaded: 1, Existing: 1, Bytes: 2048}, nil)

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Found 2 dialogs with users")
	assert.Contains(t, out, "Processing dialog with user")
	assert.Contains(t, out, "Found 2 photos")
	assert.Contains(t, out, "a.jpg")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "b.jpg")
	assert.Contains(t, out, "Finished processing 1 batch(es) of dialogs")
	assert.Contains(t, out, "All photos have been downloaded.")
	assert.Contains(t, out, "1 downloaded, 1 already present, 0 failed")
	assert.Contains(t, out, "in 2m0s")
}

func TestConsoleReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, true)

	peer := models.Conversation{PeerID: 1, PeerKind: models.PeerChat}
	r.CrawlStarted("run-1")
	r.ConversationStarted(peer)
	r.AttachmentPage(peer, []models.AttachmentRef{{SourceURL: "a"}})
	r.Downloaded(peer, "a.jpg", 10)
	r.CrawlFinished(models.CrawlStats{Downloaded: 1}, nil)

	out := buf.String()
	assert.NotContains(t, out, "Processing dialog")
	assert.NotContains(t, out, "a.jpg")
	assert.NotContains(t, out, "All photos have been downloaded.")
	assert.Contains(t, out, "1 downloaded")
}

func TestConsoleReporterFailure(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, true)

	r.Failed(models.Conversation{PeerID: 1, PeerKind: models.PeerUser}, "https://cdn/x.jpg", errors.New("boom"))
	r.CrawlFinished(models.CrawlStats{Failed: 1}, errors.New("directory error"))

	out := buf.String()
	assert.Contains(t, out, "Crawl failed:")
	assert.Contains(t, out, "directory error")
	assert.Contains(t, out, "1 failed")
}

func TestDescribeKinds(t *testing.T) {
	assert.Equal(t, "", describeKinds(nil))
	assert.Equal(t, " with users and chats", describeKinds([]models.Conversation{
		{PeerID: 1, PeerKind: models.PeerUser},
		{PeerID: 2000000001, PeerKind: models.PeerChat},
		{PeerID: 2, PeerKind: models.PeerUser},
	}))
}

func TestStatusTracker(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewStatusTracker(start)

	assert.Equal(t, "[░░░░] 0/0", st.Bar(4))

	st.AddFound(4)
	st.RecordDownloaded(100)
	st.RecordExisting()
	assert.Equal(t, "[██░░] 2/4", st.Bar(4))

	st.RecordFailed()
	st.RecordDownloaded(50)
	assert.Equal(t, "[████] 4/4", st.Bar(4))
	assert.Equal(t, int64(150), st.Bytes)
	assert.InDelta(t, 2.0, st.Rate(start.Add(time.Minute)), 0.001)
	assert.Zero(t, st.Rate(start))

	st.ResetConversation()
	assert.Equal(t, 0, st.Found)
	assert.Equal(t, 2, st.Downloaded)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 MB", FormatBytes(3*512*1024))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h1m", FormatDuration(61*time.Minute))
}

type recordingSender struct {
	titles   []string
	messages []string
}

func (s *recordingSender) Send(title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return errors.New("no notification daemon")
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	var buf bytes.Buffer
	n := NewNotifierWithSender(sender, &buf)

	n.CrawlFinished(models.CrawlStats{Downloaded: 3, Existing: 2}, nil)
	n.CrawlFinished(models.CrawlStats{}, errors.New("token expired"))

	require.Len(t, sender.titles, 2)
	assert.Equal(t, "vkscraper finished", sender.titles[0])
	assert.Equal(t, "3 new photos, 2 already present, 0 failed", sender.messages[0])
	assert.Equal(t, "vkscraper failed", sender.titles[1])
	assert.Contains(t, buf.String(), "token expired")
}

func TestNotifierWithoutSender(t *testing.T) {
	n := NewNotifierWithSender(nil, nil)
	assert.NotPanics(t, func() {
		n.CrawlFinished(models.CrawlStats{}, nil)
	})
}

func TestColorToggle(t *testing.T) {
	defer SetColor(colorEnabled)

	SetColor(false)
	assert.Equal(t, "done", Green("done"))

	SetColor(true)
	assert.Equal(t, "\033[32mdone\033[0m", Green("done"))
}
