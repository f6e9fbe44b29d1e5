package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	errs "igvision/pkg/errors"
)

const imageExt = ".jpg"

// Manager stores downloaded post images under <root>/<handle>/<shortcode>.jpg
// and remembers which ones already exist so reruns skip the download.
type Manager struct {
	root   string
	known  map[string]map[string]bool
	mu     sync.RWMutex
	scanMu sync.Mutex
}

// NewManager creates the media root if needed
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, errs.Write(root, errors.New("media directory is empty"))
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Write(root, fmt.Errorf("create media directory: %w", err))
	}

	return &Manager{
		root:  root,
		known: make(map[string]map[string]bool),
	}, nil
}

// Root returns the media root directory
func (m *Manager) Root() string {
	return m.root
}

// Path returns where the image of a post is stored
func (m *Manager) Path(handle, shortcode string) string {
	return filepath.Join(m.root, handle, shortcode+imageExt)
}

// Has reports whether the image of a post is already on disk
func (m *Manager) Has(handle, shortcode string) bool {
	if err := m.scan(handle); err != nil {
		return false
	}

	m.mu.RLock()
	ok := m.known[handle][shortcode]
	m.mu.RUnlock()
	if ok {
		return true
	}

	if _, err := os.Stat(m.Path(handle, shortcode)); err == nil {
		m.remember(handle, shortcode)
		return true
	}
	return false
}

// Save writes r to the post's image path through a temporary file and an
// atomic rename, returning the final path.
func (m *Manager) Save(handle, shortcode string, r io.Reader) (string, error) {
	if err := validName(handle); err != nil {
		return "", errs.Write(handle, err)
	}
	if err := validName(shortcode); err != nil {
		return "", errs.Write(shortcode, err)
	}

	dir := filepath.Join(m.root, handle)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Write(dir, fmt.Errorf("create handle directory: %w", err))
	}

	final := m.Path(handle, shortcode)
	tmp, err := os.CreateTemp(dir, "."+shortcode+"-*.tmp")
	if err != nil {
		return "", errs.Write(final, fmt.Errorf("create temporary file: %w", err))
	}

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		return "", errs.Write(final, errors.Join(copyErr, closeErr))
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", errs.Write(final, fmt.Errorf("rename temporary file: %w", err))
	}

	m.remember(handle, shortcode)
	return final, nil
}

// Count returns the number of stored images known for a handle
func (m *Manager) Count(handle string) int {
	if err := m.scan(handle); err != nil {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known[handle])
}

// scan loads the existing images of a handle once
func (m *Manager) scan(handle string) error {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	m.mu.RLock()
	_, done := m.known[handle]
	m.mu.RUnlock()
	if done {
		return nil
	}

	found := make(map[string]bool)
	entries, err := os.ReadDir(filepath.Join(m.root, handle))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read handle directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != imageExt {
			continue
		}
		found[strings.TrimSuffix(name, imageExt)] = true
	}

	m.mu.Lock()
	if existing, ok := m.known[handle]; ok {
		for k := range existing {
			found[k] = true
		}
	}
	m.known[handle] = found
	m.mu.Unlock()
	return nil
}

func (m *Manager) remember(handle, shortcode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.known[handle] == nil {
		m.known[handle] = make(map[string]bool)
	}
	m.known[handle][shortcode] = true
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}
