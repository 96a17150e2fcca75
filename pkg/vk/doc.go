// Package vk is a small client for the parts of the VK API the crawler uses:
// messages.getConversations, messages.getHistoryAttachments and plain media
// downloads.
//
// API calls are form POSTs to <base_url>/<method> carrying access_token and v.
// Errors in VK's {"error": {...}} envelope are decoded into *vk.Error and
// wrapped as remote_page errors from pkg/errors. API calls are spaced by a
// golang.org/x/time/rate limiter; media downloads are not.
//
//	client := vk.NewClient(cfg.VK, cfg.Download.Timeout, log)
//	page, err := client.GetConversations(ctx, 0, vk.MaxPageSize)
package vk
