package scraper

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vkscraper/pkg/config"
	"vkscraper/pkg/errors"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/models"
	"vkscraper/pkg/ratelimit"
	"vkscraper/pkg/vk"
	"vkscraper/pkg/vk/vktest"
)

func testConfig(t *testing.T, srv *vktest.Server) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.VK.AccessToken = vktest.Token
	cfg.VK.BaseURL = srv.BaseURL()
	cfg.VK.RequestsPerSecond = 0
	cfg.Download.Timeout = 5 * time.Second
	cfg.Output.BaseDirectory = filepath.Join(t.TempDir(), "photos")
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config, clock ratelimit.Clock, opts ...Option) *Scraper {
	t.Helper()
	opts = append([]Option{WithClock(clock), WithLogger(logger.NewNopLogger())}, opts...)
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

// recordingObserver counts events
type recordingObserver struct {
	BaseObserver
	runID      string
	batches    []int
	started    []models.Conversation
	pages      int
	downloaded []string
	existing   []string
	failed     []string
	finished   bool
	finalErr   error
	finalStats models.CrawlStats
}

func (r *recordingObserver) CrawlStarted(runID string) { r.runID = runID }

func (r *recordingObserver) ConversationBatch(batch int, conversations []models.Conversation) {
	r.batches = append(r.batches, len(conversations))
}

func (r *recordingObserver) ConversationStarted(c models.Conversation) {
	r.started = append(r.started, c)
}

func (r *recordingObserver) AttachmentPage(c models.Conversation, refs []models.AttachmentRef) {
	r.pages++
}

func (r *recordingObserver) Downloaded(c models.Conversation, filename string, size int64) {
	r.downloaded = append(r.downloaded, filename)
}

func (r *recordingObserver) Existing(c models.Conversation, filename string) {
	r.existing = append(r.existing, filename)
}

func (r *recordingObserver) Failed(c models.Conversation, url string, err error) {
	r.failed = append(r.failed, url)
}

func (r *recordingObserver) CrawlFinished(stats models.CrawlStats, err error) {
	r.finished = true
	r.finalStats = stats
	r.finalErr = err
}

func TestRunTwoPagesOfConversationsAndLargeHistory(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()

	for i := 1; i <= 250; i++ {
		srv.AddConversation(i, "user")
	}
	srv.AddPhotos(7, 410)

	cfg := testConfig(t, srv)
	clock := ratelimit.NewFakeClock(time.Now())
	s := newTestScraper(t, cfg, clock)

	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ConversationBatches)
	assert.Equal(t, 250, stats.Conversations)
	assert.Equal(t, 410, stats.Found)
	assert.Equal(t, 410, stats.Downloaded)
	assert.Equal(t, 3, stats.AttachmentPages)
	assert.Equal(t, 2, srv.ConversationCalls())
	assert.Equal(t, 249+3, srv.HistoryCalls())
	assert.Equal(t, 410, srv.MediaCalls())

	userDir := filepath.Join(cfg.Output.BaseDirectory, "users", "7")
	assert.Equal(t, 410, countFiles(t, userDir))
	_, err = os.Stat(filepath.Join(userDir, "p7_1.jpg"))
	assert.NoError(t, err)

	// conversations without photos get no directory
	_, err = os.Stat(filepath.Join(cfg.Output.BaseDirectory, "users", "8"))
	assert.True(t, os.IsNotExist(err))

	sleeps := clock.Sleeps()
	assert.Len(t, sleeps, 410)
	for _, d := range sleeps {
		assert.Equal(t, cfg.Download.Delay, d)
	}
	assert.GreaterOrEqual(t, clock.Slept(), 409*cfg.Download.Delay)
}

func TestRunIsIdempotent(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.AddPhotos(1, 5)

	cfg := testConfig(t, srv)
	clock := ratelimit.NewFakeClock(time.Now())

	first, err := newTestScraper(t, cfg, clock).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, first.Downloaded)

	second, err := newTestScraper(t, cfg, clock).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Downloaded)
	assert.Equal(t, 5, second.Existing)

	assert.Equal(t, 5, srv.MediaCalls())
	assert.Len(t, clock.Sleeps(), 5)
	assert.Equal(t, 5, countFiles(t, filepath.Join(cfg.Output.BaseDirectory, "users", "1")))
}

func TestRunSkipsExistingFileWithoutNetwork(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(3, "user")
	srv.AddPhotos(3, 1)

	cfg := testConfig(t, srv)
	dir := filepath.Join(cfg.Output.BaseDirectory, "users", "3")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p3_1.jpg"), []byte("kept"), 0644))

	clock := ratelimit.NewFakeClock(time.Now())
	stats, err := newTestScraper(t, cfg, clock).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Existing)
	assert.Equal(t, 0, srv.MediaCalls())
	assert.Empty(t, clock.Sleeps())

	content, err := os.ReadFile(filepath.Join(dir, "p3_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "kept", string(content))
}

func TestRunFiltersPeerKinds(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.AddConversation(-5, "group")
	srv.AddConversation(2000000001, "chat")
	srv.AddConversation(9, "email")
	srv.AddPhotos(1, 1)
	srv.AddPhotos(-5, 1)
	srv.AddPhotos(2000000001, 1)

	cfg := testConfig(t, srv)
	obs := &recordingObserver{}
	stats, err := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now()), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Conversations)
	assert.Equal(t, 3, stats.Filtered)
	assert.Equal(t, []models.Conversation{{PeerID: 1, PeerKind: models.PeerUser}}, obs.started)
	assert.Equal(t, 1, srv.HistoryCalls())

	for _, kind := range []string{"groups", "chats"} {
		_, err := os.Stat(filepath.Join(cfg.Output.BaseDirectory, kind))
		assert.True(t, os.IsNotExist(err), kind)
	}

	cfg.Crawl.PeerKinds = []string{"user", "chat"}
	stats, err = newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now())).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Conversations)
	assert.Equal(t, 1, countFiles(t, filepath.Join(cfg.Output.BaseDirectory, "chats", "2000000001")))
}

func TestRunAbortsOnTransportError(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.AddPhotos(1, 3)
	srv.FailMedia("p1_2.jpg", http.StatusInternalServerError)

	cfg := testConfig(t, srv)
	obs := &recordingObserver{}
	stats, err := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now()), WithObserver(obs)).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTransport))
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 2, srv.MediaCalls())
	assert.True(t, obs.finished)
	assert.Equal(t, err, obs.finalErr)

	dir := filepath.Join(cfg.Output.BaseDirectory, "users", "1")
	assert.Equal(t, 1, countFiles(t, dir))
}

func TestRunContinueOnError(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	urls := srv.AddPhotos(1, 3)
	srv.FailMedia("p1_2.jpg", http.StatusNotFound)

	cfg := testConfig(t, srv)
	cfg.Download.ContinueOnError = true
	clock := ratelimit.NewFakeClock(time.Now())
	obs := &recordingObserver{}

	stats, err := newTestScraper(t, cfg, clock, WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Downloaded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{urls[1]}, obs.failed)
	assert.Len(t, clock.Sleeps(), 3)

	_, statErr := os.Stat(filepath.Join(cfg.Output.BaseDirectory, "users", "1", "p1_2.jpg.part"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSkipsEmptyAttachmentPages(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.PrependEmptyPages(1, 2)
	srv.AddPhotos(1, 1)
	srv.AddAttachment(1, vk.HistoryAttachment{MessageID: 99, Attachment: vk.Attachment{Type: "photo", Photo: &vk.Photo{}}})

	cfg := testConfig(t, srv)
	obs := &recordingObserver{}
	stats, err := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now()), WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, srv.HistoryCalls())
	assert.Equal(t, 1, stats.AttachmentPages)
	assert.Equal(t, 1, obs.pages)
	assert.Equal(t, 1, stats.Downloaded)
}

func TestRunRemotePageError(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.FailMethod(vk.MethodGetHistoryAttachments, 15, "Access denied")

	cfg := testConfig(t, srv)
	_, err := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now())).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRemotePage))
	assert.Contains(t, err.Error(), "user:1")
}

func TestRunDirectoryError(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.AddPhotos(1, 1)

	cfg := testConfig(t, srv)
	require.NoError(t, os.MkdirAll(cfg.Output.BaseDirectory, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Output.BaseDirectory, "users"), nil, 0644))

	_, err := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now())).Run(context.Background())
	assert.True(t, errors.IsKind(err, errors.KindDirectory))
	assert.Equal(t, 0, srv.MediaCalls())
}

func TestRunCancelled(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(t, srv)
	_, err := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now())).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, srv.ConversationCalls())
}

func TestRunObserverEvents(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.AddConversation(1, "user")
	srv.AddConversation(2, "user")
	srv.AddPhotos(2, 2)

	cfg := testConfig(t, srv)
	obs := &recordingObserver{}
	s := newTestScraper(t, cfg, ratelimit.NewFakeClock(time.Now()), WithObserver(obs))

	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, obs.runID)
	assert.Equal(t, s.RunID(), obs.runID)
	assert.Equal(t, []int{2}, obs.batches)
	assert.Len(t, obs.started, 2)
	assert.Equal(t, []string{"p2_1.jpg", "p2_2.jpg"}, obs.downloaded)
	assert.True(t, obs.finished)
	assert.NoError(t, obs.finalErr)
	assert.Equal(t, stats, obs.finalStats)
}

func TestNewRequiresToken(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := New(cfg)
	assert.Error(t, err)

	cfg.VK.AccessToken = "token"
	_, err = New(cfg, WithLogger(logger.NewNopLogger()))
	assert.NoError(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Crawl.PeerKinds = []string{"robot"}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRunUsesDistinctRunIDs(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()

	s := newTestScraper(t, testConfig(t, srv), ratelimit.NewFakeClock(time.Now()))
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		_, err := s.Run(context.Background())
		require.NoError(t, err)
		seen[s.RunID()] = true
	}
	assert.Len(t, seen, 3, strconv.Itoa(len(seen)))
}
