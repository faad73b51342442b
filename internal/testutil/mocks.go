// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/runoshun/plan-review/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}

// MockBlobStore is an in-memory test double for domain.BlobStore.
// Fields are ordered to minimize memory padding.
type MockBlobStore struct {
	Blobs     map[string][]byte
	GetErr    error // Returned by every Get when set
	PutErr    error // Returned by every Put when set; nothing is written
	DeleteErr error // Returned by every Delete when set; nothing is removed
	StatsErr  error // Returned by Stats when set
	LastOp    string
	PutCalls  int
	Revisions int // Successful Put and Delete calls
	mu        sync.Mutex
}

// Ensure MockBlobStore implements domain.BlobStore and domain.StoreInspector.
var (
	_ domain.BlobStore      = (*MockBlobStore)(nil)
	_ domain.StoreInspector = (*MockBlobStore)(nil)
)

// NewMockBlobStore creates a new MockBlobStore with an initialized map.
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		Blobs: make(map[string][]byte),
	}
}

// Get returns a copy of the stored blob.
func (m *MockBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.Blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	return bytes.Clone(v), nil
}

// Put stores all blobs, or none if PutErr is set.
func (m *MockBlobStore) Put(_ context.Context, blobs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	for k, v := range blobs {
		m.Blobs[k] = bytes.Clone(v)
	}
	m.Revisions++
	m.LastOp = "put"
	return nil
}

// Delete removes the keys, or none if DeleteErr is set.
func (m *MockBlobStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for _, k := range keys {
		delete(m.Blobs, k)
	}
	m.Revisions++
	m.LastOp = "delete"
	return nil
}

// Stats reports the write count and last operation. LastWrite is always zero.
func (m *MockBlobStore) Stats(_ context.Context) (domain.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatsErr != nil {
		return domain.StoreStats{}, m.StatsErr
	}
	return domain.StoreStats{Backend: "mock", Revisions: m.Revisions, LastOp: m.LastOp}, nil
}

// Snapshot returns a copy of the stored blobs.
func (m *MockBlobStore) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.Blobs)
}

// LogEntry is one call recorded by MockLogger.
type LogEntry struct {
	Level    string
	ReviewID string
	Category string
	Msg      string
}

// MockLogger is a test double for domain.Logger that records entries.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// Ensure MockLogger implements domain.Logger.
var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) record(level, reviewID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, ReviewID: reviewID, Category: category, Msg: msg})
}

// Info records an info entry.
func (m *MockLogger) Info(reviewID, category, msg string) { m.record("INFO", reviewID, category, msg) }

// Debug records a debug entry.
func (m *MockLogger) Debug(reviewID, category, msg string) { m.record("DEBUG", reviewID, category, msg) }

// Warn records a warn entry.
func (m *MockLogger) Warn(reviewID, category, msg string) { m.record("WARN", reviewID, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(reviewID, category, msg string) { m.record("ERROR", reviewID, category, msg) }

// Levels returns the recorded levels for a category, in order.
func (m *MockLogger) Levels(category string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.Entries {
		if e.Category == category {
			out = append(out, e.Level)
		}
	}
	return out
}

// MockStoreInitializer is a test double for domain.StoreInitializer.
type MockStoreInitializer struct {
	InitErr     error
	Initialized bool
}

// Initialize records the call.
func (m *MockStoreInitializer) Initialize() error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.Initialized = true
	return nil
}

// IsInitialized reports whether Initialize succeeded.
func (m *MockStoreInitializer) IsInitialized() bool {
	return m.Initialized
}

// Ensure MockStoreInitializer implements domain.StoreInitializer.
var _ domain.StoreInitializer = (*MockStoreInitializer)(nil)

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitRepoErr   error
	InitGlobalErr error
	RepoConfig    *domain.Config // Set by InitRepoConfig
	GlobalConfig  *domain.Config // Set by InitGlobalConfig
	RepoInfo      domain.ConfigInfo
	GlobalInfo    domain.ConfigInfo
}

// Ensure MockConfigManager implements domain.ConfigManager.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// GetRepoConfigInfo returns RepoInfo.
func (m *MockConfigManager) GetRepoConfigInfo() domain.ConfigInfo {
	return m.RepoInfo
}

// GetGlobalConfigInfo returns GlobalInfo.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalInfo
}

// InitRepoConfig records cfg and marks the repo config as existing.
func (m *MockConfigManager) InitRepoConfig(cfg *domain.Config) error {
	if m.InitRepoErr != nil {
		return m.InitRepoErr
	}
	m.RepoConfig = cfg
	m.RepoInfo.Exists = true
	m.RepoInfo.Content = domain.RenderConfigTemplate(cfg)
	return nil
}

// InitGlobalConfig records cfg and marks the global config as existing.
func (m *MockConfigManager) InitGlobalConfig(cfg *domain.Config) error {
	if m.InitGlobalErr != nil {
		return m.InitGlobalErr
	}
	m.GlobalConfig = cfg
	m.GlobalInfo.Exists = true
	m.GlobalInfo.Content = domain.RenderConfigTemplate(cfg)
	return nil
}
