package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"vkscraper/pkg/errors"
	"vkscraper/pkg/models"
)

// partSuffix marks a file that is still being written
const partSuffix = ".part"

// Manager owns the on-disk layout <root>/<kind>s/<peerID>/<filename>
type Manager struct {
	root string
}

// NewManager creates a storage manager rooted at root, creating it if needed
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Directory(root, err)
	}
	return &Manager{root: root}, nil
}

// Root returns the storage root
func (m *Manager) Root() string {
	return m.root
}

// ConversationDir returns the directory that holds a conversation's files
func (m *Manager) ConversationDir(c models.Conversation) string {
	return filepath.Join(m.root, c.PeerKind.Plural(), strconv.Itoa(c.PeerID))
}

// EnsureConversationDir creates the conversation directory recursively
func (m *Manager) EnsureConversationDir(c models.Conversation) (string, error) {
	dir := m.ConversationDir(c)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Directory(dir, err)
	}
	return dir, nil
}

// FilenameFromURL derives the local filename for a resource URL:
// the last path segment with any query string or fragment removed.
func FilenameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid resource URL %q: %w", raw, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" || strings.HasSuffix(u.Path, "/") {
		return "", fmt.Errorf("resource URL %q has no file name", raw)
	}
	if name == ".." {
		return "", fmt.Errorf("resource URL %q has an invalid file name", raw)
	}
	return name, nil
}

// Exists reports whether a regular file is present at path
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Save streams r into path via a sibling .part file and renames it into place.
// The .part file is removed on any failure. Read errors from r are returned
// unwrapped so callers can tell them apart from local write failures.
func Save(path string, r io.Reader) (int64, error) {
	tempFile := path + partSuffix
	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errors.Storage(path, err)
	}

	w := &trackingWriter{w: out}
	n, err := io.Copy(w, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		if w.err != nil {
			return n, errors.Storage(path, w.err)
		}
		return n, err
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return n, errors.Storage(path, closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, errors.Storage(path, err)
	}
	return n, nil
}

// trackingWriter remembers write failures so Save can classify io.Copy errors
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
