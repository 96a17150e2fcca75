package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"vkscraper/pkg/config"
	"vkscraper/pkg/errors"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/ratelimit"
)

// Client talks to the VK API and fetches media files
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewClient creates a VK API client
func NewClient(cfg config.VKConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = config.DefaultAPIVersion
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.AccessToken,
		version: version,
		limiter: ratelimit.PerSecond(cfg.RequestsPerSecond),
		logger:  log.WithField("component", "vk"),
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// call invokes an API method and decodes the response payload into target.
// Every failure is returned as a remote_page error wrapping a *vk.Error where one applies.
func (c *Client) call(ctx context.Context, method string, params url.Values, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.RemotePage(method, 0, err)
	}

	form := url.Values{}
	for key, values := range params {
		form[key] = values
	}
	form.Set("access_token", c.token)
	form.Set("v", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.RemotePage(method, 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	c.logger.DebugWithFields("calling VK method", map[string]interface{}{
		"method": method,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("VK request failed", map[string]interface{}{
			"method":   method,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return errors.RemotePage(method, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.RemotePage(method, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.RemotePage(method, resp.StatusCode, &Error{
			Type:    ErrorTypeHTTP,
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		})
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.RemotePage(method, 0, c.parseError(method, body, err))
	}

	if env.Error != nil {
		apiErr := &Error{
			Type:    classify(env.Error.Code),
			Code:    env.Error.Code,
			Message: env.Error.Message,
		}
		c.logger.WarnWithFields("VK API returned an error", map[string]interface{}{
			"method":  method,
			"code":    apiErr.Code,
			"type":    string(apiErr.Type),
			"message": apiErr.Message,
		})
		return errors.RemotePage(method, apiErr.Code, apiErr)
	}

	if len(env.Response) == 0 {
		return errors.RemotePage(method, 0, &Error{Type: ErrorTypeParsing, Message: "response field is missing"})
	}
	if err := json.Unmarshal(env.Response, target); err != nil {
		return errors.RemotePage(method, 0, c.parseError(method, env.Response, err))
	}

	c.logger.DebugWithFields("VK method completed", map[string]interface{}{
		"method":   method,
		"duration": time.Since(start),
	})
	return nil
}

func (c *Client) parseError(method string, body []byte, err error) *Error {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.ErrorWithFields("failed to parse VK response", map[string]interface{}{
		"method":       method,
		"error":        err.Error(),
		"body_preview": preview,
	})
	return &Error{Type: ErrorTypeParsing, Message: fmt.Sprintf("failed to parse JSON: %v", err)}
}

// GetConversations fetches one page of the token owner's dialogs
func (c *Client) GetConversations(ctx context.Context, offset, count int) (*ConversationsResponse, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(clampCount(count)))

	var response ConversationsResponse
	if err := c.call(ctx, MethodGetConversations, params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetHistoryAttachments fetches one page of a dialog's attachments.
// startFrom is the next_from value of the previous page, empty for the first.
func (c *Client) GetHistoryAttachments(ctx context.Context, peerID int, mediaType, startFrom string, count int) (*HistoryAttachmentsResponse, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.Itoa(peerID))
	if mediaType == "" {
		mediaType = MediaTypePhoto
	}
	params.Set("media_type", mediaType)
	params.Set("count", strconv.Itoa(clampCount(count)))
	if startFrom != "" {
		params.Set("start_from", startFrom)
	}

	var response HistoryAttachmentsResponse
	if err := c.call(ctx, MethodGetHistoryAttachments, params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// OpenMedia starts downloading a media file. The caller must close the body.
// Failures are returned as transport errors.
func (c *Client) OpenMedia(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errors.Transport(mediaURL, 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("media request failed", map[string]interface{}{
			"url":   mediaURL,
			"error": err.Error(),
		})
		return nil, errors.Transport(mediaURL, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Transport(mediaURL, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	return resp.Body, nil
}
