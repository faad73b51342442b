// Package gitstore provides a Git plumbing-based implementation of BlobStore.
package gitstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/plan-review/internal/domain"
)

// Store implements domain.BlobStore using Git plumbing (refs, commits, trees and blobs).
//
// Data structure:
//
//	refs/<namespace>/state → commit
//	  tree
//	    plan_import → blob
//	    plan_draft  → blob
//	    audit_log   → blob
//
// Every Put or Delete writes a new commit whose parent is the previous state
// and moves the ref once, so a batch becomes visible all at once.
type Store struct {
	repo      *git.Repository
	now       func() time.Time
	namespace string // e.g., "planreview"
	mu        sync.RWMutex
}

// commitMeta is recorded as YAML in each state commit message.
type commitMeta struct {
	Op   string   `yaml:"op"`
	Keys []string `yaml:"keys,omitempty"`
}

// Revision describes one state commit.
type Revision struct {
	When time.Time
	Hash string
	Op   string
	Keys []string
}

// Ensure Store implements BlobStore and StoreInitializer.
var (
	_ domain.BlobStore        = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
	_ domain.StoreInspector   = (*Store)(nil)
)

// New creates a new Store for the repository at repoPath.
func New(repoPath, namespace string) (*Store, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	return NewWithRepo(repo, namespace), nil
}

// NewWithRepo creates a new Store with an existing repository instance.
func NewWithRepo(repo *git.Repository, namespace string) *Store {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	return &Store{
		repo:      repo,
		namespace: namespace,
		now:       time.Now,
	}
}

// stateRef returns the ref name holding the current state commit.
func (s *Store) stateRef() plumbing.ReferenceName {
	return plumbing.ReferenceName("refs/" + s.namespace + "/state")
}

// Get returns the blob stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, blobs, err := s.loadState()
	if err != nil {
		return nil, err
	}
	hash, ok := blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	return s.readBlob(hash)
}

// Put writes every blob in the batch as one state commit.
func (s *Store) Put(_ context.Context, blobs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, entries, err := s.loadState()
	if err != nil {
		return err
	}
	for key, data := range blobs {
		hash, writeErr := s.writeBlob(data)
		if writeErr != nil {
			return writeErr
		}
		entries[key] = hash
	}
	return s.commitState(ref, entries, commitMeta{Op: "put", Keys: slices.Sorted(maps.Keys(blobs))})
}

// Delete removes the keys as one state commit.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, entries, err := s.loadState()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(entries, key)
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	return s.commitState(ref, entries, commitMeta{Op: "delete", Keys: sorted})
}

// History returns state commits, newest first. A limit of 0 returns all.
func (s *Store) History(limit int) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, err := s.repo.Reference(s.stateRef(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("get state ref: %w", err)
	}

	var revs []Revision
	hash := ref.Hash()
	for !hash.IsZero() && (limit == 0 || len(revs) < limit) {
		commit, err := s.repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("get state commit: %w", err)
		}
		revs = append(revs, revisionOf(commit))
		hash = plumbing.ZeroHash
		if len(commit.ParentHashes) > 0 {
			hash = commit.ParentHashes[0]
		}
	}
	return revs, nil
}

// Stats reports the number of state commits and the newest one.
func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	revs, err := s.History(0)
	if err != nil {
		return domain.StoreStats{}, err
	}
	stats := domain.StoreStats{Backend: domain.BackendGit, Revisions: len(revs)}
	if len(revs) > 0 {
		stats.LastWrite = revs[0].When
		stats.LastOp = revs[0].Op
	}
	return stats, nil
}

func revisionOf(c *object.Commit) Revision {
	rev := Revision{Hash: c.Hash.String(), When: c.Committer.When}
	// Message is a summary line, a blank line, then YAML metadata.
	if _, body, ok := strings.Cut(c.Message, "\n\n"); ok {
		var m commitMeta
		if yaml.Unmarshal([]byte(body), &m) == nil {
			rev.Op = m.Op
			rev.Keys = m.Keys
		}
	}
	return rev
}

// loadState returns the state ref and its tree entries by name.
func (s *Store) loadState() (*plumbing.Reference, map[string]plumbing.Hash, error) {
	ref, err := s.repo.Reference(s.stateRef(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get state ref: %w", err)
	}

	commit, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("get state commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, fmt.Errorf("get state tree: %w", err)
	}

	entries := make(map[string]plumbing.Hash, len(tree.Entries))
	for _, e := range tree.Entries {
		entries[e.Name] = e.Hash
	}
	return ref, entries, nil
}

// commitState writes a tree and commit for entries and moves the state ref.
// parent is nil for the first commit.
func (s *Store) commitState(parent *plumbing.Reference, entries map[string]plumbing.Hash, m commitMeta) error {
	treeHash, err := s.buildTree(entries)
	if err != nil {
		return err
	}

	body, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal commit meta: %w", err)
	}
	summary := strings.TrimSpace("planreview: " + m.Op + " " + strings.Join(m.Keys, ", "))
	sig := object.Signature{Name: "planreview", Email: "planreview@localhost", When: s.now()}
	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   summary + "\n\n" + string(body),
		TreeHash:  treeHash,
	}
	if parent != nil {
		commit.ParentHashes = []plumbing.Hash{parent.Hash()}
	}

	obj := s.repo.Storer.NewEncodedObject()
	if encodeErr := commit.Encode(obj); encodeErr != nil {
		return fmt.Errorf("encode commit: %w", encodeErr)
	}
	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return fmt.Errorf("store commit: %w", err)
	}

	// Refuse to move the ref if another writer moved it since we read it.
	next := plumbing.NewHashReference(s.stateRef(), hash)
	if err := s.repo.Storer.CheckAndSetReference(next, parent); err != nil {
		return fmt.Errorf("set state ref: %w", err)
	}
	return nil
}

// buildTree creates a tree object from entries.
func (s *Store) buildTree(entries map[string]plumbing.Hash) (plumbing.Hash, error) {
	tree := &object.Tree{}
	// Sort entries by name for consistent tree hash
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: name,
			Mode: filemode.Regular,
			Hash: entries[name],
		})
	}

	obj := s.repo.Storer.NewEncodedObject()
	if encodeErr := tree.Encode(obj); encodeErr != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode tree: %w", encodeErr)
	}

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store tree: %w", err)
	}

	return hash, nil
}

// writeBlob writes data to a blob and returns the hash.
func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create blob writer: %w", err)
	}

	if _, writeErr := writer.Write(data); writeErr != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", writeErr)
	}
	_ = writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}

	return hash, nil
}

// readBlob reads data from a blob.
func (s *Store) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob data: %w", err)
	}
	return data, nil
}

// Initialize creates the first, empty state commit if none exists.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.Reference(s.stateRef(), true)
	if err == nil {
		return nil // Already initialized
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("check state ref: %w", err)
	}

	return s.commitState(nil, map[string]plumbing.Hash{}, commitMeta{Op: "init"})
}

// IsInitialized checks if the store has been initialized.
func (s *Store) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.repo.Reference(s.stateRef(), true)
	return err == nil
}
