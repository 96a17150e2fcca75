package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPage logs one fetched page of a paged listing
func LogPage(l Logger, listing string, page, items int, hasNext bool) {
	l.DebugWithFields("Page fetched", map[string]interface{}{
		"listing":  listing,
		"page":     page,
		"items":    items,
		"has_next": hasNext,
	})
}

// LogDownload logs the outcome of a single download attempt
func LogDownload(l Logger, peer, filename string, downloaded bool, err error) {
	fields := map[string]interface{}{
		"peer":     peer,
		"filename": filename,
	}

	switch {
	case err != nil:
		l.WithError(err).ErrorWithFields("Download failed", fields)
	case downloaded:
		l.InfoWithFields("Downloaded", fields)
	default:
		l.InfoWithFields("AlreadyExists", fields)
	}
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
