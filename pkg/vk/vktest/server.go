// Package vktest provides an in-process fake of the VK API for tests.
package vktest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"vkscraper/pkg/vk"
)

// Token is the access token the fake server accepts
const Token = "test-token"

// Server simulates messages.getConversations, messages.getHistoryAttachments
// and a media CDN under /media/
type Server struct {
	server *httptest.Server

	mu            sync.RWMutex
	conversations []vk.Peer
	history       map[int][]vk.HistoryAttachment
	media         map[string][]byte
	mediaErrors   map[string]int
	methodErrors  map[string]vk.Error
	emptyPages    map[int]int

	conversationCalls int32
	historyCalls      int32
	mediaCalls        int32
}

// NewServer starts a fake VK server; call Close when done
func NewServer() *Server {
	s := &Server{
		history:      make(map[int][]vk.HistoryAttachment),
		media:        make(map[string][]byte),
		mediaErrors:  make(map[string]int),
		methodErrors: make(map[string]vk.Error),
		emptyPages:   make(map[int]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/method/"+vk.MethodGetConversations, s.handleConversations)
	mux.HandleFunc("/method/"+vk.MethodGetHistoryAttachments, s.handleHistory)
	mux.HandleFunc("/media/", s.handleMedia)

	s.server = httptest.NewServer(mux)
	return s
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// URL returns the server root URL
func (s *Server) URL() string {
	return s.server.URL
}

// BaseURL returns the API base URL to put in config.VKConfig
func (s *Server) BaseURL() string {
	return s.server.URL + "/method"
}

// AddConversation appends a dialog with the given peer
func (s *Server) AddConversation(peerID int, peerType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append(s.conversations, vk.Peer{ID: peerID, Type: peerType})
}

// AddPhotos attaches n photos to a dialog and serves their files.
// It returns the URL the crawler is expected to pick for each photo.
func (s *Server) AddPhotos(peerID, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := len(s.history[peerID]) + 1
		name := fmt.Sprintf("p%d_%d.jpg", peerID, id)
		large := fmt.Sprintf("%s/media/%s?size=1280x960&quality=96", s.server.URL, name)
		small := fmt.Sprintf("%s/media/small_%s?size=130x97", s.server.URL, name)

		s.history[peerID] = append(s.history[peerID], vk.HistoryAttachment{
			MessageID: id,
			FromID:    peerID,
			Attachment: vk.Attachment{
				Type: "photo",
				Photo: &vk.Photo{
					ID:      id,
					OwnerID: peerID,
					Sizes: []vk.PhotoSize{
						{Type: "s", URL: small, Width: 130, Height: 97},
						{Type: "z", URL: large, Width: 1280, Height: 960},
					},
				},
			},
		})
		s.media[name] = []byte("photo:" + name)
		urls = append(urls, large)
	}
	return urls
}

// AddAttachment appends a raw attachment record to a dialog
func (s *Server) AddAttachment(peerID int, a vk.HistoryAttachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[peerID] = append(s.history[peerID], a)
}

// SetMedia serves content at /media/<name>
func (s *Server) SetMedia(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[name] = content
}

// FailMedia makes /media/<name> answer with status
func (s *Server) FailMedia(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaErrors[name] = status
}

// FailMethod makes an API method answer with a VK error envelope
func (s *Server) FailMethod(method string, code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methodErrors[method] = vk.Error{Code: code, Message: message}
}

// PrependEmptyPages makes the first n history pages of a dialog come back
// empty while still carrying a continuation token
func (s *Server) PrependEmptyPages(peerID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyPages[peerID] = n
}

// ConversationCalls returns the number of getConversations requests served
func (s *Server) ConversationCalls() int { return int(atomic.LoadInt32(&s.conversationCalls)) }

// HistoryCalls returns the number of getHistoryAttachments requests served
func (s *Server) HistoryCalls() int { return int(atomic.LoadInt32(&s.historyCalls)) }

// MediaCalls returns the number of media requests served
func (s *Server) MediaCalls() int { return int(atomic.LoadInt32(&s.mediaCalls)) }

// Requests returns the total number of requests served
func (s *Server) Requests() int {
	return s.ConversationCalls() + s.HistoryCalls() + s.MediaCalls()
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.conversationCalls, 1)
	if !s.authorize(w, r, vk.MethodGetConversations) {
		return
	}

	offset := formInt(r, "offset", 0)
	count := formInt(r, "count", 20)

	s.mu.RLock()
	total := len(s.conversations)
	end := offset + count
	if end > total {
		end = total
	}
	items := []vk.ConversationItem{}
	for i := offset; i < end; i++ {
		items = append(items, vk.ConversationItem{Conversation: vk.Conversation{Peer: s.conversations[i]}})
	}
	s.mu.RUnlock()

	writeResponse(w, vk.ConversationsResponse{Count: total, Items: items})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.historyCalls, 1)
	if !s.authorize(w, r, vk.MethodGetHistoryAttachments) {
		return
	}

	peerID := formInt(r, "peer_id", 0)
	count := formInt(r, "count", 30)
	startFrom := r.FormValue("start_from")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if empty := s.emptyPages[peerID]; empty > 0 {
		index := 0
		if strings.HasPrefix(startFrom, "empty") {
			index, _ = strconv.Atoi(strings.TrimPrefix(startFrom, "empty"))
		}
		if startFrom == "" || strings.HasPrefix(startFrom, "empty") {
			next := "0"
			if index+1 < empty {
				next = fmt.Sprintf("empty%d", index+1)
			}
			writeResponse(w, vk.HistoryAttachmentsResponse{Items: []vk.HistoryAttachment{}, NextFrom: next})
			return
		}
	}

	start := 0
	if startFrom != "" {
		start, _ = strconv.Atoi(startFrom)
	}

	all := s.history[peerID]
	end := start + count
	if end > len(all) {
		end = len(all)
	}
	items := []vk.HistoryAttachment{}
	if start < len(all) {
		items = append(items, all[start:end]...)
	}

	response := vk.HistoryAttachmentsResponse{Items: items}
	if end < len(all) {
		response.NextFrom = strconv.Itoa(end)
	}
	writeResponse(w, response)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.mediaCalls, 1)
	name := strings.TrimPrefix(r.URL.Path, "/media/")

	s.mu.RLock()
	status, failing := s.mediaErrors[name]
	content, ok := s.media[name]
	s.mu.RUnlock()

	if failing {
		w.WriteHeader(status)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(content)
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	if r.FormValue("access_token") != Token {
		writeError(w, 5, "User authorization failed: invalid access_token")
		return false
	}
	if r.FormValue("v") == "" {
		writeError(w, 8, "Invalid request: v is required")
		return false
	}

	s.mu.RLock()
	apiErr, failing := s.methodErrors[method]
	s.mu.RUnlock()
	if failing {
		writeError(w, apiErr.Code, apiErr.Message)
		return false
	}
	return true
}

func formInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.FormValue(key))
	if err != nil {
		return fallback
	}
	return v
}

func writeResponse(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"response": payload})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"error_code": code,
			"error_msg":  message,
		},
	})
}
