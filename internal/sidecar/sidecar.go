// Package sidecar persists the visual-only annotation file that accompanies
// each topology document. The sidecar lives next to the document as
// <topologyPath>.annotations.json and never carries semantic topology state.
package sidecar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// Suffix is appended to the topology path to form the sidecar path
const Suffix = ".annotations.json"

// Path derives the sidecar path for a topology document.
func Path(docPath string) string {
	return docPath + Suffix
}

// Manager loads and saves annotation collections. Loads are absorbed by a
// short-lived cache because the UI fires several in quick succession when a
// topology opens; the cache is invalidated on every save.
type Manager struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	coll     *domain.AnnotationCollection
	loadedAt time.Time
}

// NewManager creates a manager with the default one-second cache TTL.
func NewManager() *Manager {
	return &Manager{
		cache: make(map[string]cacheEntry),
		ttl:   time.Second,
	}
}

// WithTTL overrides the cache TTL.
func (m *Manager) WithTTL(ttl time.Duration) *Manager {
	m.ttl = ttl
	return m
}

// Load reads the annotation collection for a topology document. It never
// fails: a missing file yields an empty collection and an unparsable file is
// logged and treated the same way. Each caller gets its own copy; the cached
// collection is never handed out for mutation.
func (m *Manager) Load(docPath string) *domain.AnnotationCollection {
	path := Path(docPath)

	m.mu.Lock()
	if entry, ok := m.cache[path]; ok && time.Since(entry.loadedAt) < m.ttl {
		m.mu.Unlock()
		return entry.coll.Clone()
	}
	m.mu.Unlock()

	coll := m.read(path)

	m.mu.Lock()
	m.cache[path] = cacheEntry{coll: coll, loadedAt: time.Now()}
	m.mu.Unlock()

	return coll.Clone()
}

func (m *Manager) read(path string) *domain.AnnotationCollection {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to read annotations %s: %v", path, err)
		}
		return domain.NewAnnotationCollection()
	}

	coll := domain.NewAnnotationCollection()
	if err := json.Unmarshal(data, coll); err != nil {
		log.Printf("Corrupt annotations file %s, starting empty: %v", path, err)
		return domain.NewAnnotationCollection()
	}

	normalize(coll)
	return coll
}

// Save persists the collection. An all-empty collection deletes the sidecar
// file; otherwise the file is written unless the serialized content already
// matches what is on disk.
func (m *Manager) Save(docPath string, coll *domain.AnnotationCollection) error {
	path := Path(docPath)
	m.invalidate(path)

	if coll == nil || coll.IsEmpty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete annotations %s: %w", path, err)
		}
		return nil
	}

	normalize(coll)
	data, err := json.MarshalIndent(coll, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	data = append(data, '\n')

	// Best-effort compare against on-disk content so an identical save does
	// not generate a filesystem event
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write annotations %s: %w", path, err)
	}
	return nil
}

// Invalidate drops any cached collection for the document.
func (m *Manager) Invalidate(docPath string) {
	m.invalidate(Path(docPath))
}

func (m *Manager) invalidate(path string) {
	m.mu.Lock()
	delete(m.cache, path)
	m.mu.Unlock()
}

// normalize replaces nil sub-collections with empty slices so the persisted
// JSON always carries all five keys.
func normalize(coll *domain.AnnotationCollection) {
	if coll.NodeAnnotations == nil {
		coll.NodeAnnotations = []domain.NodeAnnotation{}
	}
	if coll.CloudNodeAnnotations == nil {
		coll.CloudNodeAnnotations = []domain.CloudAnnotation{}
	}
	if coll.FreeTextAnnotations == nil {
		coll.FreeTextAnnotations = []domain.FreeTextAnnotation{}
	}
	if coll.FreeShapeAnnotations == nil {
		coll.FreeShapeAnnotations = []domain.FreeShapeAnnotation{}
	}
	if coll.GroupStyleAnnotations == nil {
		coll.GroupStyleAnnotations = []domain.GroupStyleAnnotation{}
	}
}
