package vk_test

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vkscraper/pkg/config"
	"vkscraper/pkg/errors"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/vk"
	"vkscraper/pkg/vk/vktest"
)

func newClient(t *testing.T, srv *vktest.Server) *vk.Client {
	t.Helper()
	return vk.NewClient(config.VKConfig{
		AccessToken: vktest.Token,
		APIVersion:  config.DefaultAPIVersion,
		BaseURL:     srv.BaseURL(),
	}, 5*time.Second, logger.NewNopLogger())
}

func TestGetConversationsPaging(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	for i := 1; i <= 5; i++ {
		srv.AddConversation(i, "user")
	}
	srv.AddConversation(2000000001, "chat")

	client := newClient(t, srv)

	page, err := client.GetConversations(context.Background(), 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, page.Count)
	require.Len(t, page.Items, 4)
	assert.Equal(t, 1, page.Items[0].Conversation.Peer.ID)
	assert.Equal(t, "user", page.Items[0].Conversation.Peer.Type)

	page, err = client.GetConversations(context.Background(), 4, 4)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "chat", page.Items[1].Conversation.Peer.Type)
}

func TestGetHistoryAttachmentsPaging(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	urls := srv.AddPhotos(7, 3)

	client := newClient(t, srv)

	page, err := client.GetHistoryAttachments(context.Background(), 7, vk.MediaTypePhoto, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2", page.NextFrom)

	largest, ok := page.Items[0].Attachment.Photo.Largest()
	require.True(t, ok)
	assert.Equal(t, urls[0], largest.URL)

	page, err = client.GetHistoryAttachments(context.Background(), 7, vk.MediaTypePhoto, page.NextFrom, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.NextFrom)
}

func TestAPIErrorEnvelope(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.FailMethod(vk.MethodGetConversations, 29, "Rate limit reached")

	_, err := newClient(t, srv).GetConversations(context.Background(), 0, 200)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRemotePage))

	var apiErr *vk.Error
	require.True(t, stderrors.As(err, &apiErr))
	assert.Equal(t, vk.ErrorTypeRateLimit, apiErr.Type)
	assert.Equal(t, 29, apiErr.Code)
}

func TestInvalidToken(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()

	client := vk.NewClient(config.VKConfig{AccessToken: "wrong", BaseURL: srv.BaseURL()}, time.Second, logger.NewNopLogger())
	_, err := client.GetConversations(context.Background(), 0, 200)

	var apiErr *vk.Error
	require.True(t, stderrors.As(err, &apiErr))
	assert.Equal(t, vk.ErrorTypeAuth, apiErr.Type)
}

func TestHTTPStatusAndMalformedBody(t *testing.T) {
	status := http.StatusBadGateway
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := vk.NewClient(config.VKConfig{AccessToken: "t", BaseURL: server.URL}, time.Second, logger.NewNopLogger())

	_, err := client.GetConversations(context.Background(), 0, 200)
	var apiErr *vk.Error
	require.True(t, stderrors.As(err, &apiErr))
	assert.Equal(t, vk.ErrorTypeHTTP, apiErr.Type)
	assert.Equal(t, http.StatusBadGateway, apiErr.Code)

	status = http.StatusOK
	_, err = client.GetConversations(context.Background(), 0, 200)
	require.True(t, stderrors.As(err, &apiErr))
	assert.Equal(t, vk.ErrorTypeParsing, apiErr.Type)
}

func TestOpenMedia(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()
	srv.SetMedia("a.jpg", []byte("jpeg"))
	srv.FailMedia("gone.jpg", http.StatusForbidden)

	client := newClient(t, srv)

	body, err := client.OpenMedia(context.Background(), srv.URL()+"/media/a.jpg?size=z")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	body.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	_, err = client.OpenMedia(context.Background(), srv.URL()+"/media/gone.jpg")
	assert.True(t, errors.IsKind(err, errors.KindTransport))

	_, err = client.OpenMedia(context.Background(), srv.URL()+"/media/missing.jpg")
	assert.True(t, errors.IsKind(err, errors.KindTransport))
}

func TestRequestsPerSecondSpacing(t *testing.T) {
	srv := vktest.NewServer()
	defer srv.Close()

	client := vk.NewClient(config.VKConfig{
		AccessToken:       vktest.Token,
		BaseURL:           srv.BaseURL(),
		RequestsPerSecond: 20,
	}, time.Second, logger.NewNopLogger())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetConversations(context.Background(), 0, 200)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
