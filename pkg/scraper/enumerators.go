package scraper

import (
	"context"
	stderrors "errors"

	"vkscraper/pkg/errors"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/models"
	"vkscraper/pkg/pager"
	"vkscraper/pkg/vk"
)

// ConversationLister is the part of VKClient used to list dialogs
type ConversationLister interface {
	GetConversations(ctx context.Context, offset, count int) (*vk.ConversationsResponse, error)
}

// AttachmentLister is the part of VKClient used to list a dialog's media
type AttachmentLister interface {
	GetHistoryAttachments(ctx context.Context, peerID int, mediaType, startFrom string, count int) (*vk.HistoryAttachmentsResponse, error)
}

// ConversationEnumerator yields one batch of selected conversations per remote page
type ConversationEnumerator struct {
	client   ConversationLister
	pageSize int
	kinds    map[models.PeerKind]bool
	logger   logger.Logger

	cursor   *pager.Cursor[models.Conversation]
	total    int
	filtered int
}

// NewConversationEnumerator lists conversations whose peer kind is in kinds
func NewConversationEnumerator(client ConversationLister, pageSize int, kinds []models.PeerKind, log logger.Logger) *ConversationEnumerator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	e := &ConversationEnumerator{
		client:   client,
		pageSize: pageSize,
		kinds:    make(map[models.PeerKind]bool, len(kinds)),
		logger:   log,
	}
	for _, k := range kinds {
		e.kinds[k] = true
	}
	e.cursor = pager.New(e.fetch)
	return e
}

func (e *ConversationEnumerator) fetch(ctx context.Context, token string) (pager.Page[models.Conversation], error) {
	offset, err := pager.ParseOffset(token)
	if err != nil {
		return pager.Page[models.Conversation]{}, err
	}

	resp, err := e.client.GetConversations(ctx, offset, e.pageSize)
	if err != nil {
		return pager.Page[models.Conversation]{}, err
	}
	e.total = resp.Count

	selected := make([]models.Conversation, 0, len(resp.Items))
	for _, item := range resp.Items {
		peer := item.Conversation.Peer
		kind, err := models.ParsePeerKind(peer.Type)
		if err != nil || !e.kinds[kind] {
			e.filtered++
			continue
		}
		selected = append(selected, models.Conversation{PeerID: peer.ID, PeerKind: kind})
	}

	next := offset + len(resp.Items)
	hasNext := len(resp.Items) > 0 && next < resp.Count
	logger.LogPage(e.logger, vk.MethodGetConversations, e.cursor.Pages()+1, len(resp.Items), hasNext)

	return pager.Page[models.Conversation]{
		Items:     selected,
		NextToken: pager.OffsetToken(next),
		HasNext:   hasNext,
	}, nil
}

// Next fetches the next page of conversations
func (e *ConversationEnumerator) Next(ctx context.Context) bool {
	return e.cursor.Next(ctx)
}

// Batch returns the conversations selected from the current page
func (e *ConversationEnumerator) Batch() []models.Conversation {
	return e.cursor.Items()
}

// Total returns the conversation count reported by the remote
func (e *ConversationEnumerator) Total() int {
	return e.total
}

// Filtered returns how many conversations were dropped by the kind filter so far
func (e *ConversationEnumerator) Filtered() int {
	return e.filtered
}

// Err returns the error that ended enumeration, if any
func (e *ConversationEnumerator) Err() error {
	return pageError(vk.MethodGetConversations, e.cursor.Err())
}

// AttachmentEnumerator yields non-empty pages of download references for one conversation
type AttachmentEnumerator struct {
	client       AttachmentLister
	conversation models.Conversation
	mediaType    string
	pageSize     int
	logger       logger.Logger

	cursor  *pager.Cursor[models.AttachmentRef]
	refs    []models.AttachmentRef
	skipped int
}

// NewAttachmentEnumerator lists media attachments of one conversation
func NewAttachmentEnumerator(client AttachmentLister, c models.Conversation, mediaType string, pageSize int, log logger.Logger) *AttachmentEnumerator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	e := &AttachmentEnumerator{
		client:       client,
		conversation: c,
		mediaType:    mediaType,
		pageSize:     pageSize,
		logger:       log,
	}
	e.cursor = pager.New(e.fetch)
	return e
}

func (e *AttachmentEnumerator) fetch(ctx context.Context, token string) (pager.Page[models.AttachmentRef], error) {
	resp, err := e.client.GetHistoryAttachments(ctx, e.conversation.PeerID, e.mediaType, token, e.pageSize)
	if err != nil {
		return pager.Page[models.AttachmentRef]{}, err
	}

	refs := make([]models.AttachmentRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		size, ok := item.Attachment.Photo.Largest()
		if !ok {
			e.skipped++
			continue
		}
		refs = append(refs, models.AttachmentRef{SourceURL: size.URL})
	}

	hasNext := resp.NextFrom != ""
	logger.LogPage(e.logger, vk.MethodGetHistoryAttachments, e.cursor.Pages()+1, len(resp.Items), hasNext)

	return pager.Page[models.AttachmentRef]{
		Items:     refs,
		NextToken: resp.NextFrom,
		HasNext:   hasNext,
	}, nil
}

// Next advances to the next page that has at least one reference
func (e *AttachmentEnumerator) Next(ctx context.Context) bool {
	for e.cursor.Next(ctx) {
		if refs := e.cursor.Items(); len(refs) > 0 {
			e.refs = refs
			return true
		}
	}
	e.refs = nil
	return false
}

// Refs returns the references of the current page
func (e *AttachmentEnumerator) Refs() []models.AttachmentRef {
	return e.refs
}

// Skipped returns how many records had no usable photo
func (e *AttachmentEnumerator) Skipped() int {
	return e.skipped
}

// Pages returns how many remote pages were fetched, empty ones included
func (e *AttachmentEnumerator) Pages() int {
	return e.cursor.Pages()
}

// Err returns the error that ended enumeration, if any
func (e *AttachmentEnumerator) Err() error {
	return pageError(vk.MethodGetHistoryAttachments, e.cursor.Err())
}

// pageError types paging failures as remote_page errors, leaving cancellation as is
func pageError(method string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.IsKind(err, errors.KindRemotePage) {
		return err
	}
	return errors.RemotePage(method, 0, err)
}
