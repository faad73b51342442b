// Package jsonstore provides a JSON file-based implementation of BlobStore.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/runoshun/plan-review/internal/domain"
)

// storeData represents the JSON file structure.
// Blobs are kept as strings so their bytes survive unchanged.
type storeData struct {
	Blobs map[string]string `json:"blobs"`
	Meta  meta              `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Revision int `json:"revision"` // Incremented on every successful write
}

// Store implements domain.BlobStore using a JSON file.
type Store struct {
	path     string
	lockPath string
}

// Ensure Store implements BlobStore and StoreInitializer.
var (
	_ domain.BlobStore        = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
	_ domain.StoreInspector   = (*Store)(nil)
)

// New creates a new Store for the given file path.
// The file is created by Initialize.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Get returns the blob stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.withLock(func(data *storeData) error {
		v, ok := data.Blobs[key]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
		}
		blob = []byte(v)
		return nil
	})
	return blob, err
}

// Put writes every blob in one file replacement.
func (s *Store) Put(_ context.Context, blobs map[string][]byte) error {
	return s.withLockWrite(func(data *storeData) error {
		for k, v := range blobs {
			data.Blobs[k] = string(v)
		}
		return nil
	})
}

// Delete removes the keys in one file replacement.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	return s.withLockWrite(func(data *storeData) error {
		for _, k := range keys {
			delete(data.Blobs, k)
		}
		return nil
	})
}

// Revision returns the number of writes applied to the store.
func (s *Store) Revision() (int, error) {
	var rev int
	err := s.withLock(func(data *storeData) error {
		rev = data.Meta.Revision
		return nil
	})
	return rev, err
}

// Stats reports the write revision and the store file's modification time.
func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	rev, err := s.Revision()
	if err != nil {
		return domain.StoreStats{}, err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("stat store file: %w", err)
	}
	return domain.StoreStats{Backend: domain.BackendJSON, Revisions: rev, LastWrite: info.ModTime()}, nil
}

// IsInitialized checks if the store file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates an empty store file if it doesn't exist.
func (s *Store) Initialize() error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return nil // Already exists
	}

	return s.write(&storeData{Blobs: make(map[string]string)})
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	data.Meta.Revision++
	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	// Ensure lock file directory exists
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data storeData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}

	if data.Blobs == nil {
		data.Blobs = make(map[string]string)
	}

	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
