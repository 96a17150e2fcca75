// Package logger provides the structured logging interface used across vkscraper.
//
// It wraps zerolog with a small interface so components can be handed a
// logger, a no-op logger or a capturing TestLogger interchangeably.
//
//	err := logger.Initialize(&cfg.Logging)
//
//	log := logger.GetLogger().WithField("component", "scraper")
//	log.InfoWithFields("Found photos", map[string]interface{}{
//	    "peer":  "user:42",
//	    "count": 17,
//	})
//
// Console output is colourised; when LoggingConfig.File is set every entry is
// also appended to that file as JSON.
package logger
