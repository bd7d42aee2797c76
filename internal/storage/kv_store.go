// internal/storage/kv_store.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// KVStore is the persistence capability consumed by the services: an
// asynchronous-friendly get/set/remove of JSON-serializable values by key.
// Get reports found=false for missing keys instead of an error.
type KVStore interface {
	Get(key string, v interface{}) (bool, error)
	Set(key string, v interface{}) error
	Remove(key string) error
}

// FileStore is a file-backed KVStore. Each key is stored as one JSON file
// under BaseDir, written atomically via a temp-file rename.
type FileStore struct {
	BaseDir string

	// per-key locks, path -> *sync.RWMutex
	fileLocks sync.Map

	cache        map[string]*cacheEntry
	cacheMutex   sync.RWMutex
	cacheExpiry  time.Duration
	maxCacheSize int

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

type cacheEntry struct {
	data      []byte
	timestamp time.Time
}

// NewFileStore creates a file-backed store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	fs := &FileStore{
		BaseDir:      baseDir,
		cache:        make(map[string]*cacheEntry),
		cacheExpiry:  5 * time.Minute,
		maxCacheSize: 100,
		stopCleanup:  make(chan struct{}),
	}

	fs.startCacheCleanup()

	return fs, nil
}

// keyPath maps a store key to its file path. Keys are sanitized so that a
// key can never escape the base directory.
func (fs *FileStore) keyPath(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(fs.BaseDir, safe+".json")
}

func (fs *FileStore) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// Set serializes v as JSON and writes it atomically under key.
func (fs *FileStore) Set(key string, v interface{}) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing value for %q: %w", key, err)
	}

	fullPath := fs.keyPath(key)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing %q: %w", key, err)
	}

	fs.updateCache(fullPath, content)

	return nil
}

// Get loads the value stored under key into v. Returns found=false when
// the key does not exist.
func (fs *FileStore) Get(key string, v interface{}) (bool, error) {
	fullPath := fs.keyPath(key)

	if data, ok := fs.readCache(fullPath); ok {
		return true, json.Unmarshal(data, v)
	}

	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	// Double-check after acquiring the lock
	if data, ok := fs.readCache(fullPath); ok {
		return true, json.Unmarshal(data, v)
	}

	content, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", key, err)
	}

	fs.updateCache(fullPath, content)

	if err := json.Unmarshal(content, v); err != nil {
		return false, fmt.Errorf("parsing %q: %w", key, err)
	}
	return true, nil
}

// Remove deletes the value stored under key. Removing a missing key is
// not an error.
func (fs *FileStore) Remove(key string) error {
	fullPath := fs.keyPath(key)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %w", key, err)
	}

	fs.invalidateCache(fullPath)

	return nil
}

func (fs *FileStore) readCache(path string) ([]byte, bool) {
	fs.cacheMutex.RLock()
	defer fs.cacheMutex.RUnlock()

	entry, exists := fs.cache[path]
	if !exists || time.Since(entry.timestamp) >= fs.cacheExpiry {
		return nil, false
	}
	return entry.data, true
}

func (fs *FileStore) updateCache(path string, data []byte) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	fs.cache[path] = &cacheEntry{
		data:      data,
		timestamp: time.Now(),
	}

	if len(fs.cache) > fs.maxCacheSize {
		// Evict the oldest entry
		var oldestKey string
		var oldestTime time.Time

		for key, entry := range fs.cache {
			if oldestKey == "" || entry.timestamp.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.timestamp
			}
		}

		if oldestKey != "" {
			delete(fs.cache, oldestKey)
		}
	}
}

func (fs *FileStore) invalidateCache(path string) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	delete(fs.cache, path)
}

func (fs *FileStore) startCacheCleanup() {
	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fs.cleanupExpiredCache()
				fs.enforceMaxCacheSize()
			case <-fs.stopCleanup:
				return
			}
		}
	}()
}

// Close stops the cache cleanup loop. The store remains usable but the
// cache is no longer pruned in the background.
func (fs *FileStore) Close() {
	fs.closeOnce.Do(func() {
		close(fs.stopCleanup)
	})
}

func (fs *FileStore) cleanupExpiredCache() {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	now := time.Now()
	for path, entry := range fs.cache {
		if now.Sub(entry.timestamp) > fs.cacheExpiry {
			delete(fs.cache, path)
		}
	}
}

func (fs *FileStore) enforceMaxCacheSize() {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	if len(fs.cache) <= fs.maxCacheSize {
		return
	}

	type entryWithTime struct {
		key       string
		timestamp time.Time
	}

	var entries []entryWithTime
	for key, entry := range fs.cache {
		entries = append(entries, entryWithTime{key: key, timestamp: entry.timestamp})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})

	removeCount := len(entries) - fs.maxCacheSize
	for i := 0; i < removeCount; i++ {
		delete(fs.cache, entries[i].key)
	}
}
