package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runoshun/plan-review/internal/domain"
)

// InitRepoInput contains the input parameters for InitRepo.
type InitRepoInput struct {
	Config *domain.Config // Rendered into config.toml (required)
	Dir    string         // Path to .planreview directory
	Root   string         // Project root, checked for a .gitignore entry
}

// InitRepoOutput contains the output from InitRepo.
type InitRepoOutput struct {
	Dir               string // Path to created planreview directory
	ConfigCreated     bool   // False if config.toml already existed
	GitignoreNeedsAdd bool   // True if .planreview/ is not in .gitignore
}

// InitRepo initializes a project for planreview.
type InitRepo struct {
	storeInit     domain.StoreInitializer
	configManager domain.ConfigManager
}

// NewInitRepo creates a new InitRepo use case.
func NewInitRepo(storeInit domain.StoreInitializer, configManager domain.ConfigManager) *InitRepo {
	return &InitRepo{storeInit: storeInit, configManager: configManager}
}

// Execute creates the .planreview directory, writes config.toml and initializes the store.
// An existing config.toml is kept.
func (uc *InitRepo) Execute(_ context.Context, in InitRepoInput) (*InitRepoOutput, error) {
	if uc.storeInit.IsInitialized() {
		return nil, domain.ErrAlreadyInitialized
	}
	if in.Config == nil {
		in.Config = domain.NewDefaultConfig()
	}

	// Create planreview and logs directories
	if err := os.MkdirAll(filepath.Join(in.Dir, domain.LogDirName), 0o750); err != nil {
		return nil, fmt.Errorf("create planreview directory: %w", err)
	}

	created := true
	if err := uc.configManager.InitRepoConfig(in.Config); err != nil {
		if !errors.Is(err, domain.ErrConfigExists) {
			return nil, fmt.Errorf("write config: %w", err)
		}
		created = false
	}

	if err := uc.storeInit.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	return &InitRepoOutput{
		Dir:               in.Dir,
		ConfigCreated:     created,
		GitignoreNeedsAdd: in.Root != "" && !isIgnored(in.Root),
	}, nil
}

// isIgnored checks if .planreview/ is in the root .gitignore.
func isIgnored(root string) bool {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return false
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		// Check for exact match or with trailing slash
		if line == domain.DirName || line == domain.DirName+"/" || line == "/"+domain.DirName+"/" {
			return true
		}
	}
	return false
}
