package models

import (
	"fmt"
	"strings"
)

// PeerKind is the type of the counterpart of a conversation
type PeerKind string

const (
	PeerUser  PeerKind = "user"
	PeerGroup PeerKind = "group"
	PeerChat  PeerKind = "chat"
)

// ParsePeerKind converts a remote peer type into a PeerKind
func ParsePeerKind(s string) (PeerKind, error) {
	switch kind := PeerKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case PeerUser, PeerGroup, PeerChat:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown peer kind: %q", s)
	}
}

// Plural returns the directory name used for peers of this kind
func (k PeerKind) Plural() string {
	return string(k) + "s"
}

// Conversation identifies a single dialog on the remote service
type Conversation struct {
	PeerID   int      `json:"peer_id"`
	PeerKind PeerKind `json:"peer_kind"`
}

func (c Conversation) String() string {
	return fmt.Sprintf("%s:%d", c.PeerKind, c.PeerID)
}

// AttachmentRef points at one downloadable media resource
type AttachmentRef struct {
	SourceURL string `json:"source_url"`
}

// CrawlStats accumulates counters over one crawl run
type CrawlStats struct {
	ConversationBatches int   `json:"conversation_batches"`
	Conversations       int   `json:"conversations"`
	Filtered            int   `json:"filtered"`
	AttachmentPages     int   `json:"attachment_pages"`
	Found               int   `json:"found"`
	Downloaded          int   `json:"downloaded"`
	Existing            int   `json:"existing"`
	Failed              int   `json:"failed"`
	Bytes               int64 `json:"bytes"`
}
