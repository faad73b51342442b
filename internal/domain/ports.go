package domain

import (
	"context"
	"time"
)

// Blob keys used by the engine.
const (
	KeyPlanImport = "plan_import" // Plan document exactly as imported
	KeyPlanDraft  = "plan_draft"  // Current plan, including review edits and approval
	KeyAuditLog   = "audit_log"   // {"audit_log": [...]}
)

// PlanKeys lists every blob key owned by a review, in write order.
var PlanKeys = []string{KeyPlanImport, KeyPlanDraft, KeyAuditLog}

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store if it doesn't exist.
	Initialize() error

	// IsInitialized reports whether Initialize has already run.
	IsInitialized() bool
}

// BlobStore is a durable key-value store of named JSON blobs.
type BlobStore interface {
	// Get returns the blob stored under key.
	// Returns ErrBlobNotFound if the key has never been written or was deleted.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes every blob in the batch. Either all of them become visible or none do.
	Put(ctx context.Context, blobs map[string][]byte) error

	// Delete removes the given keys. Either all of them are removed or none are.
	// Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// StoreStats describes the write history of a BlobStore.
// Fields are ordered to minimize memory padding.
type StoreStats struct {
	LastWrite time.Time // Zero when unknown
	Backend   StoreBackend
	LastOp    string // Empty when the backend does not record it
	Revisions int    // Zero when the backend does not count writes
}

// StoreInspector is implemented by stores that can report their write history.
type StoreInspector interface {
	Stats(ctx context.Context) (StoreStats, error)
}

// ConfigLoader loads configuration.
type ConfigLoader interface {
	// Load returns the merged configuration (repo + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigInfo describes one config file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigManager inspects and creates config files.
type ConfigManager interface {
	GetRepoConfigInfo() ConfigInfo
	GetGlobalConfigInfo() ConfigInfo
	InitRepoConfig(cfg *Config) error
	InitGlobalConfig(cfg *Config) error
}

// Logger writes operational log entries.
// reviewID scopes the entry to one imported plan; empty means global.
type Logger interface {
	Info(reviewID, category, msg string)
	Debug(reviewID, category, msg string)
	Warn(reviewID, category, msg string)
	Error(reviewID, category, msg string)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
