package downloader

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"vkscraper/pkg/errors"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/storage"
)

// MediaFetcher opens a remote resource for reading
type MediaFetcher interface {
	OpenMedia(ctx context.Context, url string) (io.ReadCloser, error)
}

// Result describes the outcome of one Download call
type Result struct {
	URL        string
	Filename   string
	Path       string
	Downloaded bool // false when the file already existed
	Size       int64
	Duration   time.Duration
}

// Downloader saves resources into a directory exactly once per filename
type Downloader struct {
	fetcher MediaFetcher
	logger  logger.Logger
}

// New creates a Downloader
func New(fetcher MediaFetcher, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{fetcher: fetcher, logger: log}
}

// Download stores url under destDir unless a file with the derived name is
// already there, in which case no network request is made. destDir must exist.
func (d *Downloader) Download(ctx context.Context, url, destDir string) (Result, error) {
	start := time.Now()
	result := Result{URL: url}

	filename, err := storage.FilenameFromURL(url)
	if err != nil {
		return result, errors.Transport(url, 0, err)
	}
	result.Filename = filename
	result.Path = filepath.Join(destDir, filename)

	exists, err := storage.Exists(result.Path)
	if err != nil {
		return result, errors.Storage(result.Path, err)
	}
	if exists {
		d.logger.DebugWithFields("File already exists", map[string]interface{}{
			"path": result.Path,
		})
		result.Duration = time.Since(start)
		return result, nil
	}

	body, err := d.fetcher.OpenMedia(ctx, url)
	if err != nil {
		return result, err
	}
	defer body.Close()

	size, err := storage.Save(result.Path, body)
	if err != nil {
		if errors.IsKind(err, errors.KindStorage) {
			return result, err
		}
		return result, errors.Transport(url, 0, err)
	}

	result.Downloaded = true
	result.Size = size
	result.Duration = time.Since(start)

	d.logger.DebugWithFields("File downloaded", map[string]interface{}{
		"path":     result.Path,
		"size":     size,
		"duration": result.Duration,
	})
	return result, nil
}
