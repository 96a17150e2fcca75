package vk

import "encoding/json"

// envelope is the outer shape of every VK API response
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *apiError       `json:"error"`
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// ConversationsResponse is the payload of messages.getConversations
type ConversationsResponse struct {
	Count int                `json:"count"`
	Items []ConversationItem `json:"items"`
}

// ConversationItem wraps a single dialog
type ConversationItem struct {
	Conversation Conversation `json:"conversation"`
}

// Conversation holds the dialog's peer
type Conversation struct {
	Peer Peer `json:"peer"`
}

// Peer identifies the other side of a dialog
type Peer struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	LocalID int    `json:"local_id,omitempty"`
}

// HistoryAttachmentsResponse is the payload of messages.getHistoryAttachments
type HistoryAttachmentsResponse struct {
	Items    []HistoryAttachment `json:"items"`
	NextFrom string              `json:"next_from,omitempty"`
}

// HistoryAttachment is one attachment with the message it came from
type HistoryAttachment struct {
	MessageID  int        `json:"message_id"`
	FromID     int        `json:"from_id"`
	Attachment Attachment `json:"attachment"`
}

// Attachment is a typed media attachment; only photos are decoded
type Attachment struct {
	Type  string `json:"type"`
	Photo *Photo `json:"photo,omitempty"`
}

// Photo is a VK photo with its rendered size variants
type Photo struct {
	ID      int         `json:"id"`
	OwnerID int         `json:"owner_id"`
	Sizes   []PhotoSize `json:"sizes"`
}

// PhotoSize is one rendition of a photo
type PhotoSize struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// sizeRank orders VK size types from smallest to largest
var sizeRank = map[string]int{
	"s": 1, "m": 2, "x": 3, "o": 4, "p": 5, "q": 6, "r": 7, "y": 8, "z": 9, "w": 10,
}

// Largest picks the biggest usable rendition: largest declared area, then
// size-type rank, then the later entry in the list. Sizes without a URL are skipped.
func (p *Photo) Largest() (PhotoSize, bool) {
	if p == nil {
		return PhotoSize{}, false
	}

	var best PhotoSize
	found := false
	for _, size := range p.Sizes {
		if size.URL == "" {
			continue
		}
		if !found || !smaller(size, best) {
			best = size
			found = true
		}
	}
	return best, found
}

// smaller reports whether a ranks strictly below b
func smaller(a, b PhotoSize) bool {
	areaA, areaB := a.Width*a.Height, b.Width*b.Height
	if areaA != areaB {
		return areaA < areaB
	}
	return sizeRank[a.Type] < sizeRank[b.Type]
}
