package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/models"
)

func TestWriterSavesReport(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, logger.NewNopLogger())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	alice := models.Conversation{PeerID: 1, PeerKind: models.PeerUser}
	w.CrawlStarted("run-1")
	w.ConversationBatch(1, []models.Conversation{alice})
	w.ConversationStarted(alice)
	w.AttachmentPage(alice, []models.AttachmentRef{{SourceURL: "a"}, {SourceURL: "b"}, {SourceURL: "c"}})
	w.Downloaded(alice, "a.jpg", 100)
	w.Existing(alice, "b.jpg")
	w.Failed(alice, "https://host/c.jpg", errors.New("status 404"))

	stats := models.CrawlStats{Conversations: 1, Found: 3, Downloaded: 1, Existing: 1, Failed: 1, Bytes: 100}
	w.CrawlFinished(stats, nil)
	require.NoError(t, w.Err())

	saved, err := Load(filepath.Join(root, Dir, "run-1.json"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", saved.RunID)
	assert.Equal(t, StatusCompleted, saved.Status)
	assert.Equal(t, stats, saved.Stats)
	assert.True(t, fixed.Equal(saved.FinishedAt))
	require.Len(t, saved.Conversations, 1)
	assert.Equal(t, ConversationReport{Peer: "user:1", Found: 3, Downloaded: 1, Existing: 1, Failed: 1, Bytes: 100}, *saved.Conversations[0])
	require.Len(t, saved.Failures, 1)
	assert.Equal(t, "https://host/c.jpg", saved.Failures[0].URL)

	last, err := LoadLast(root)
	require.NoError(t, err)
	assert.Equal(t, "run-1", last.RunID)

	_, err = os.Stat(filepath.Join(root, Dir, "run-1.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriterRecordsFailure(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, logger.NewNopLogger())

	w.CrawlStarted("run-2")
	w.CrawlFinished(models.CrawlStats{}, errors.New("remote_page error"))

	last, err := LoadLast(root)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, last.Status)
	assert.Equal(t, "remote_page error", last.Error)
}

func TestLastRunIsReplaced(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, logger.NewNopLogger())

	for _, id := range []string{"first", "second"} {
		w.CrawlStarted(id)
		w.CrawlFinished(models.CrawlStats{}, nil)
	}

	last, err := LoadLast(root)
	require.NoError(t, err)
	assert.Equal(t, "second", last.RunID)

	entries, err := os.ReadDir(filepath.Join(root, Dir))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLoadLastWithoutRuns(t *testing.T) {
	last, err := LoadLast(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, last)
}

func TestEventsBeforeStartAreIgnored(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.NewNopLogger())
	c := models.Conversation{PeerID: 1, PeerKind: models.PeerUser}
	assert.NotPanics(t, func() {
		w.ConversationStarted(c)
		w.Downloaded(c, "a.jpg", 1)
		w.CrawlFinished(models.CrawlStats{}, nil)
	})
	assert.Nil(t, w.Report())
}
