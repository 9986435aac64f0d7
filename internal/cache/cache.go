// Package cache persists fetched hymn payloads on disk so repeat sessions
// do not hit the hymn backend.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	entryVersion   = 1
	defaultTTLDays = 14
	cacheDirName   = "psalter"
	hymnsDirName   = "hymns"
	lockFileName   = "cache.lock"
)

var (
	ErrMiss    = errors.New("cache miss")
	ErrExpired = errors.New("cache expired")
	ErrCorrupt = errors.New("cache corrupt")
)

// Entry wraps one cached hymn payload. Payload is the raw JSON exactly as
// the backend served it; decoding stays the hymn package's job.
type Entry struct {
	Version   uint8
	HymnID    string
	Payload   []byte
	CreatedAt int64
	ExpiresAt int64
}

// Store is a disk cache with a write-through memory layer. A file lock on
// the cache directory keeps concurrent psalter processes from interleaving
// writes; when the lock or the directory is unavailable the store degrades
// to memory-only.
type Store struct {
	basePath string
	lock     *flock.Flock
	mu       sync.RWMutex
	mem      map[string]*Entry
}

var (
	globalStore     *Store
	globalStoreOnce sync.Once
)

func GetGlobalStore() *Store {
	globalStoreOnce.Do(func() {
		store, err := NewStore()
		if err != nil {
			store = &Store{mem: make(map[string]*Entry)}
		}
		globalStore = store
	})
	return globalStore
}

func NewStore() (*Store, error) {
	cacheDir, err := cacheDirectory()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(filepath.Join(cacheDir, hymnsDirName))
}

func NewStoreAt(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}

	s := &Store{
		basePath: basePath,
		mem:      make(map[string]*Entry),
	}

	lock := flock.New(filepath.Join(basePath, lockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		// another process owns the directory; stay memory-only
		s.basePath = ""
		return s, nil
	}
	s.lock = lock

	return s, nil
}

// Location returns the disk directory backing the store, or "" when it is
// memory-only.
func (s *Store) Location() string { return s.basePath }

// Close releases the directory lock.
func (s *Store) Close() error {
	if s.lock != nil {
		return s.lock.Unlock()
	}
	return nil
}

func cacheDirectory() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, cacheDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cache", cacheDirName), nil
}

func entryKey(hymnID string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(hymnID)))
	return hex.EncodeToString(hash[:12])
}

func (s *Store) filePath(key string) string {
	if s.basePath == "" {
		return ""
	}
	return filepath.Join(s.basePath, key+".bin")
}

func (s *Store) Get(hymnID string) ([]byte, error) {
	if hymnID == "" {
		return nil, ErrMiss
	}

	key := entryKey(hymnID)

	s.mu.RLock()
	entry, exists := s.mem[key]
	s.mu.RUnlock()

	if exists {
		if entry.ExpiresAt > time.Now().Unix() {
			return entry.Payload, nil
		}
		s.mu.Lock()
		delete(s.mem, key)
		s.mu.Unlock()
	}

	if s.basePath == "" {
		return nil, ErrMiss
	}

	entry, err := s.readFromDisk(s.filePath(key))
	if err != nil {
		return nil, err
	}

	if entry.ExpiresAt <= time.Now().Unix() {
		_ = os.Remove(s.filePath(key))
		return nil, ErrExpired
	}

	s.mu.Lock()
	s.mem[key] = entry
	s.mu.Unlock()

	return entry.Payload, nil
}

func (s *Store) Set(hymnID string, payload []byte) error {
	if hymnID == "" || len(payload) == 0 {
		return errors.New("invalid cache entry")
	}

	now := time.Now().Unix()
	entry := &Entry{
		Version:   entryVersion,
		HymnID:    hymnID,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now + int64(defaultTTLDays*24*60*60),
	}

	key := entryKey(hymnID)

	s.mu.Lock()
	s.mem[key] = entry
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	return s.writeToDisk(s.filePath(key), entry)
}

func (s *Store) Delete(hymnID string) error {
	if hymnID == "" {
		return errors.New("empty hymn id")
	}

	key := entryKey(hymnID)

	s.mu.Lock()
	delete(s.mem, key)
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	err := os.Remove(s.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) readFromDisk(filePath string) (*Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	defer file.Close()

	var entry Entry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, ErrCorrupt
	}

	if entry.Version != entryVersion {
		_ = os.Remove(filePath)
		return nil, ErrCorrupt
	}

	return &entry, nil
}

func (s *Store) writeToDisk(filePath string, entry *Entry) error {
	// temp file plus rename keeps readers from seeing partial writes
	tmpPath := filePath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(entry); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, filePath)
}

func (s *Store) Clear() error {
	s.mu.Lock()
	s.mem = make(map[string]*Entry)
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".bin") {
			_ = os.Remove(filepath.Join(s.basePath, entry.Name()))
		}
	}
	return nil
}

// Prune removes expired and unreadable entries, returning how many were
// dropped.
func (s *Store) Prune() (int, error) {
	if s.basePath == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, err
	}

	pruned := 0
	now := time.Now().Unix()

	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".bin") {
			continue
		}

		filePath := filepath.Join(s.basePath, dirEntry.Name())
		entry, err := s.readFromDisk(filePath)
		if err != nil {
			_ = os.Remove(filePath)
			pruned++
			continue
		}

		if entry.ExpiresAt <= now {
			_ = os.Remove(filePath)
			pruned++
		}
	}

	return pruned, nil
}

func (s *Store) Stats() (count int, sizeBytes int64, err error) {
	if s.basePath == "" {
		return 0, 0, nil
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		sizeBytes += info.Size()
	}

	return count, sizeBytes, nil
}
