// Package app provides the dependency injection container for the application.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/engine"
	"github.com/runoshun/plan-review/internal/infra/config"
	"github.com/runoshun/plan-review/internal/infra/gitstore"
	"github.com/runoshun/plan-review/internal/infra/jsonstore"
	"github.com/runoshun/plan-review/internal/infra/logging"
	"github.com/runoshun/plan-review/internal/infra/sqlitestore"
	"github.com/runoshun/plan-review/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	Root      string // Project root (holds .planreview)
	Dir       string // Path to .planreview directory
	StorePath string // State file or git repository used by the store
}

// newConfig resolves paths for a project root.
func newConfig(root string, appConfig *domain.Config) Config {
	return Config{
		Root:      root,
		Dir:       domain.RepoDir(root),
		StorePath: appConfig.StorePath(root),
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Store            domain.BlobStore
	StoreInitializer domain.StoreInitializer
	Clock            domain.Clock
	Logger           domain.Logger
	ConfigLoader     domain.ConfigLoader
	ConfigManager    domain.ConfigManager

	// Pointer fields
	AppConfig *domain.Config // Merged configuration
	session   *engine.Engine
	closers   []io.Closer

	// Configuration
	Config Config
}

// New creates a new Container for the project containing dir.
func New(dir string) (*Container, error) {
	root, err := FindRoot(dir)
	if err != nil {
		return nil, err
	}
	repoDir := domain.RepoDir(root)

	configLoader := config.NewLoader(repoDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := newConfig(root, appConfig)

	store, storeInit, err := NewStore(appConfig, root)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Dir, logging.ParseLevel(appConfig.Log.Level))

	c := &Container{
		Store:            store,
		StoreInitializer: storeInit,
		Clock:            domain.RealClock{},
		Logger:           logger,
		ConfigLoader:     configLoader,
		ConfigManager:    config.NewManager(repoDir),
		AppConfig:        appConfig,
		Config:           cfg,
	}
	c.closers = append(c.closers, logger)
	if closer, ok := store.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, store domain.BlobStore, storeInit domain.StoreInitializer, clock domain.Clock, logger domain.Logger) *Container {
	return &Container{
		Store:            store,
		StoreInitializer: storeInit,
		Clock:            clock,
		Logger:           logger,
		ConfigManager:    config.NewManagerWithGlobalDir(cfg.Dir, ""),
		AppConfig:        domain.NewDefaultConfig(),
		Config:           cfg,
	}
}

// backend is the full surface of a concrete store.
type backend interface {
	domain.BlobStore
	domain.StoreInitializer
}

// NewStore creates the store selected by appConfig.Store.Backend.
func NewStore(appConfig *domain.Config, root string) (domain.BlobStore, domain.StoreInitializer, error) {
	path := appConfig.StorePath(root)

	var s backend
	switch appConfig.Store.Backend {
	case domain.BackendJSON:
		s = jsonstore.New(path)
	case domain.BackendSQLite:
		s = sqlitestore.New(path)
	case domain.BackendGit:
		gs, err := gitstore.New(path, appConfig.Store.Namespace)
		if err != nil {
			return nil, nil, err
		}
		s = gs
	default:
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, appConfig.Store.Backend)
	}
	return s, s, nil
}

// FindRoot returns the nearest ancestor of dir holding a .planreview directory.
// Without one, the enclosing git worktree root is used, then dir itself.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}

	for d := abs; ; d = filepath.Dir(d) {
		if info, statErr := os.Stat(domain.RepoDir(d)); statErr == nil && info.IsDir() {
			return d, nil
		}
		if filepath.Dir(d) == d {
			break
		}
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository
		return abs, nil //nolint:nilerr // no worktree root to prefer
	}
	return wt.Filesystem.Root(), nil
}

// Close releases the log file and store connections.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// Session returns the engine shared by every use case of this container.
func (c *Container) Session() *engine.Engine {
	if c.session == nil {
		c.session = engine.New(c.Store, c.Clock, c.Logger, c.AppConfig.Review.Actor)
	}
	return c.session
}

// UseCase factory methods

// InitRepoUseCase returns a new InitRepo use case for the store described by appConfig.
func (c *Container) InitRepoUseCase(appConfig *domain.Config) (*usecase.InitRepo, error) {
	storeInit := c.StoreInitializer
	if appConfig != nil && appConfig.Store != c.AppConfig.Store {
		_, si, err := NewStore(appConfig, c.Config.Root)
		if err != nil {
			return nil, err
		}
		storeInit = si
		if closer, ok := si.(io.Closer); ok {
			c.closers = append(c.closers, closer)
		}
	}
	return usecase.NewInitRepo(storeInit, c.ConfigManager), nil
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.AppConfig)
}

// ImportPlanUseCase returns a new ImportPlan use case.
func (c *Container) ImportPlanUseCase() *usecase.ImportPlan {
	return usecase.NewImportPlan(c.Session())
}

// ShowPlanUseCase returns a new ShowPlan use case.
func (c *Container) ShowPlanUseCase() *usecase.ShowPlan {
	return usecase.NewShowPlan(c.Session())
}

// ValidatePlanUseCase returns a new ValidatePlan use case.
func (c *Container) ValidatePlanUseCase() *usecase.ValidatePlan {
	return usecase.NewValidatePlan(c.Session())
}

// ModifyTaskUseCase returns a new ModifyTask use case.
func (c *Container) ModifyTaskUseCase() *usecase.ModifyTask {
	return usecase.NewModifyTask(c.Session())
}

// MoveTaskUseCase returns a new MoveTask use case.
func (c *Container) MoveTaskUseCase() *usecase.MoveTask {
	return usecase.NewMoveTask(c.Session())
}

// RemoveTaskUseCase returns a new RemoveTask use case.
func (c *Container) RemoveTaskUseCase() *usecase.RemoveTask {
	return usecase.NewRemoveTask(c.Session())
}

// AddTaskUseCase returns a new AddTask use case.
func (c *Container) AddTaskUseCase() *usecase.AddTask {
	return usecase.NewAddTask(c.Session())
}

// ApprovePlanUseCase returns a new ApprovePlan use case.
func (c *Container) ApprovePlanUseCase() *usecase.ApprovePlan {
	return usecase.NewApprovePlan(c.Session())
}

// SavePlanUseCase returns a new SavePlan use case.
func (c *Container) SavePlanUseCase() *usecase.SavePlan {
	return usecase.NewSavePlan(c.Session())
}

// ClearPlanUseCase returns a new ClearPlan use case.
func (c *Container) ClearPlanUseCase() *usecase.ClearPlan {
	return usecase.NewClearPlan(c.Session())
}

// ExportPlanUseCase returns a new ExportPlan use case.
func (c *Container) ExportPlanUseCase() *usecase.ExportPlan {
	return usecase.NewExportPlan(c.Session())
}

// ShowAuditUseCase returns a new ShowAudit use case.
func (c *Container) ShowAuditUseCase() *usecase.ShowAudit {
	return usecase.NewShowAudit(c.Session())
}

// ShowStatusUseCase returns a new ShowStatus use case.
func (c *Container) ShowStatusUseCase() *usecase.ShowStatus {
	inspector, _ := c.Store.(domain.StoreInspector)
	return usecase.NewShowStatus(c.Session(), inspector)
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() *usecase.ShowLogs {
	return usecase.NewShowLogs(c.Session(), c.Config.Dir)
}
