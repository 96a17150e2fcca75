package scraper

import (
	"context"
	"io"

	"vkscraper/pkg/models"
	"vkscraper/pkg/vk"
)

// VKClient defines the remote operations the scraper needs
type VKClient interface {
	GetConversations(ctx context.Context, offset, count int) (*vk.ConversationsResponse, error)
	GetHistoryAttachments(ctx context.Context, peerID int, mediaType, startFrom string, count int) (*vk.HistoryAttachmentsResponse, error)
	OpenMedia(ctx context.Context, url string) (io.ReadCloser, error)
}

// Observer receives crawl progress events. Calls are made from the crawl
// goroutine, in order.
type Observer interface {
	CrawlStarted(runID string)
	ConversationBatch(batch int, conversations []models.Conversation)
	ConversationStarted(c models.Conversation)
	AttachmentPage(c models.Conversation, refs []models.AttachmentRef)
	Downloaded(c models.Conversation, filename string, size int64)
	Existing(c models.Conversation, filename string)
	Failed(c models.Conversation, url string, err error)
	CrawlFinished(stats models.CrawlStats, err error)
}

// BaseObserver ignores every event; embed it to implement only some hooks
type BaseObserver struct{}

func (BaseObserver) CrawlStarted(runID string)                                         {}
func (BaseObserver) ConversationBatch(batch int, conversations []models.Conversation)  {}
func (BaseObserver) ConversationStarted(c models.Conversation)                         {}
func (BaseObserver) AttachmentPage(c models.Conversation, refs []models.AttachmentRef) {}
func (BaseObserver) Downloaded(c models.Conversation, filename string, size int64)     {}
func (BaseObserver) Existing(c models.Conversation, filename string)                   {}
func (BaseObserver) Failed(c models.Conversation, url string, err error)               {}
func (BaseObserver) CrawlFinished(stats models.CrawlStats, err error)                  {}

// MultiObserver fans events out to several observers
type MultiObserver []Observer

func (m MultiObserver) CrawlStarted(runID string) {
	for _, o := range m {
		o.CrawlStarted(runID)
	}
}

func (m MultiObserver) ConversationBatch(batch int, conversations []models.Conversation) {
	for _, o := range m {
		o.ConversationBatch(batch, conversations)
	}
}

func (m MultiObserver) ConversationStarted(c models.Conversation) {
	for _, o := range m {
		o.ConversationStarted(c)
	}
}

func (m MultiObserver) AttachmentPage(c models.Conversation, refs []models.AttachmentRef) {
	for _, o := range m {
		o.AttachmentPage(c, refs)
	}
}

func (m MultiObserver) Downloaded(c models.Conversation, filename string, size int64) {
	for _, o := range m {
		o.Downloaded(c, filename, size)
	}
}

func (m MultiObserver) Existing(c models.Conversation, filename string) {
	for _, o := range m {
		o.Existing(c, filename)
	}
}

func (m MultiObserver) Failed(c models.Conversation, url string, err error) {
	for _, o := range m {
		o.Failed(c, url, err)
	}
}

func (m MultiObserver) CrawlFinished(stats models.CrawlStats, err error) {
	for _, o := range m {
		o.CrawlFinished(stats, err)
	}
}
