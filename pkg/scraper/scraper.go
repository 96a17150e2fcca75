package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"vkscraper/internal/downloader"
	"vkscraper/pkg/config"
	"vkscraper/pkg/errors"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/models"
	"vkscraper/pkg/ratelimit"
	"vkscraper/pkg/storage"
	"vkscraper/pkg/vk"
)

// Scraper walks every selected conversation and downloads its photos
type Scraper struct {
	config    *config.Config
	client    VKClient
	limiter   ratelimit.Limiter
	clock     ratelimit.Clock
	observers MultiObserver
	logger    logger.Logger
	kinds     []models.PeerKind
	runID     string

	store      *storage.Manager
	downloader *downloader.Downloader
}

// Option configures a Scraper
type Option func(*Scraper)

// WithClient replaces the VK client
func WithClient(c VKClient) Option {
	return func(s *Scraper) { s.client = c }
}

// WithClock sets the clock used by the download delay
func WithClock(c ratelimit.Clock) Option {
	return func(s *Scraper) { s.clock = c }
}

// WithLimiter replaces the download delay limiter entirely
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithObserver adds a progress observer
func WithObserver(o Observer) Option {
	return func(s *Scraper) { s.observers = append(s.observers, o) }
}

// New creates a Scraper from configuration
func New(cfg *config.Config, opts ...Option) (*Scraper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	kinds := make([]models.PeerKind, 0, len(cfg.Crawl.PeerKinds))
	for _, k := range cfg.Crawl.PeerKinds {
		kind, err := models.ParsePeerKind(k)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}

	s := &Scraper{
		config: cfg,
		kinds:  kinds,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	if s.client == nil {
		if err := cfg.ValidateCredentials(); err != nil {
			return nil, err
		}
		s.client = vk.NewClient(cfg.VK, cfg.Download.Timeout, s.logger)
	}
	if s.clock == nil {
		s.clock = ratelimit.RealClock()
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewInterval(cfg.Download.Delay, s.clock)
	}

	return s, nil
}

// RunID returns the ID of the current or last run
func (s *Scraper) RunID() string {
	return s.runID
}

// Run performs one complete crawl. It stops at the first fatal error; with
// download.continue_on_error set, failed downloads are counted and skipped.
func (s *Scraper) Run(ctx context.Context) (models.CrawlStats, error) {
	var stats models.CrawlStats

	s.runID = uuid.NewString()
	log := s.logger.WithField("run_id", s.runID)
	started := time.Now()

	s.observers.CrawlStarted(s.runID)
	log.InfoWithFields("Starting crawl", map[string]interface{}{
		"output":     s.config.Output.BaseDirectory,
		"peer_kinds": s.config.Crawl.PeerKinds,
		"delay":      s.config.Download.Delay,
	})

	finish := func(err error) (models.CrawlStats, error) {
		fields := map[string]interface{}{
			"batches":       stats.ConversationBatches,
			"conversations": stats.Conversations,
			"downloaded":    stats.Downloaded,
			"existing":      stats.Existing,
			"failed":        stats.Failed,
			"bytes":         stats.Bytes,
			"duration":      time.Since(started),
		}
		if err != nil {
			log.WithError(err).ErrorWithFields("Crawl aborted", fields)
		} else {
			log.InfoWithFields("Crawl finished", fields)
		}
		s.observers.CrawlFinished(stats, err)
		return stats, err
	}

	store, err := storage.NewManager(s.config.Output.BaseDirectory)
	if err != nil {
		return finish(err)
	}
	s.store = store
	s.downloader = downloader.New(s.client, log)

	conversations := NewConversationEnumerator(s.client, s.config.Crawl.ConversationPageSize, s.kinds, log)
	for conversations.Next(ctx) {
		batch := conversations.Batch()
		stats.ConversationBatches++
		stats.Filtered = conversations.Filtered()

		log.InfoWithFields("Conversation batch fetched", map[string]interface{}{
			"batch":    stats.ConversationBatches,
			"selected": len(batch),
			"total":    conversations.Total(),
		})
		s.observers.ConversationBatch(stats.ConversationBatches, batch)

		for _, c := range batch {
			stats.Conversations++
			if err := s.crawlConversation(ctx, c, &stats, log); err != nil {
				return finish(fmt.Errorf("conversation %s: %w", c, err))
			}
		}
	}
	if err := conversations.Err(); err != nil {
		return finish(err)
	}

	return finish(nil)
}

// crawlConversation downloads every photo of one conversation
func (s *Scraper) crawlConversation(ctx context.Context, c models.Conversation, stats *models.CrawlStats, log logger.Logger) error {
	log = log.WithField("peer", c.String())
	s.observers.ConversationStarted(c)
	log.Debug("Processing conversation")

	dir := ""
	attachments := NewAttachmentEnumerator(s.client, c, s.config.Crawl.MediaType, s.config.Crawl.AttachmentPageSize, log)
	for attachments.Next(ctx) {
		refs := attachments.Refs()
		stats.AttachmentPages++
		stats.Found += len(refs)
		s.observers.AttachmentPage(c, refs)

		if dir == "" {
			var err error
			if dir, err = s.store.EnsureConversationDir(c); err != nil {
				return err
			}
		}

		for _, ref := range refs {
			if err := s.downloadOne(ctx, c, ref, dir, stats, log); err != nil {
				return err
			}
		}
	}
	return attachments.Err()
}

// downloadOne handles a single reference and applies the download delay
// after any attempt that reached the network
func (s *Scraper) downloadOne(ctx context.Context, c models.Conversation, ref models.AttachmentRef, dir string, stats *models.CrawlStats, log logger.Logger) error {
	result, err := s.downloader.Download(ctx, ref.SourceURL, dir)
	logger.LogDownload(log, c.String(), result.Filename, result.Downloaded, err)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.config.Download.ContinueOnError || !errors.IsKind(err, errors.KindTransport) {
			return err
		}
		stats.Failed++
		s.observers.Failed(c, ref.SourceURL, err)
		return s.limiter.Wait(ctx)
	}

	if !result.Downloaded {
		stats.Existing++
		s.observers.Existing(c, result.Filename)
		return nil
	}

	stats.Downloaded++
	stats.Bytes += result.Size
	s.observers.Downloaded(c, result.Filename, result.Size)
	return s.limiter.Wait(ctx)
}
