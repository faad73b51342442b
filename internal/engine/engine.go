// Package engine owns the plan under review and keeps it in step with a BlobStore.
package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/runoshun/plan-review/internal/domain"
	"github.com/zeebo/blake3"
)

// Engine holds the current plan and audit log and persists every committed change.
// It is not safe for concurrent use.
// Fields are ordered to minimize memory padding.
type Engine struct {
	store   domain.BlobStore
	clock   domain.Clock
	logger  domain.Logger
	newID   func() string
	current domain.Snapshot
	actor   string
	saved   digests
}

// digests identifies the bytes last written for the plan draft and audit log.
type digests struct {
	plan  [32]byte
	audit [32]byte
}

// Export is the persisted plan and audit-log documents, byte for byte.
type Export struct {
	Plan        []byte
	Audit       []byte
	PlanDigest  string // blake3, hex
	AuditDigest string // blake3, hex
}

// New creates an Engine with no plan loaded.
// An empty actor falls back to domain.DefaultActor.
func New(store domain.BlobStore, clock domain.Clock, logger domain.Logger, actor string) *Engine {
	if actor == "" {
		actor = domain.DefaultActor
	}
	return &Engine{
		store:  store,
		clock:  clock,
		logger: logger,
		actor:  actor,
		newID:  uuid.NewString,
	}
}

// Loaded reports whether a plan is held in memory.
func (e *Engine) Loaded() bool {
	return e.current.Plan != nil
}

// Plan returns a copy of the current plan.
func (e *Engine) Plan() (*domain.Plan, error) {
	if !e.Loaded() {
		return nil, domain.ErrNoPlan
	}
	return e.current.Plan.Clone(), nil
}

// Audit returns a copy of the current audit log.
func (e *Engine) Audit() (domain.AuditLog, error) {
	if !e.Loaded() {
		return nil, domain.ErrNoPlan
	}
	return e.current.Audit.Clone(), nil
}

// Validate runs validation against the current plan.
func (e *Engine) Validate() (domain.ValidationResult, error) {
	if !e.Loaded() {
		return domain.ValidationResult{}, domain.ErrNoPlan
	}
	return domain.Validate(e.current.Plan), nil
}

// Load restores the plan and audit log from the store.
// The draft is preferred; a plan that was imported but never edited is read from the import blob.
func (e *Engine) Load(ctx context.Context) error {
	key := domain.KeyPlanDraft
	raw, err := e.store.Get(ctx, key)
	if errors.Is(err, domain.ErrBlobNotFound) {
		key = domain.KeyPlanImport
		raw, err = e.store.Get(ctx, key)
	}
	if errors.Is(err, domain.ErrBlobNotFound) {
		return domain.ErrNoPlan
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	plan, err := domain.ParsePlan(raw)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if plan.LastModifiedUTC == "" {
		plan.LastModifiedUTC = domain.FormatTimestamp(e.clock.Now())
	}
	plan = domain.Recompute(plan)
	if err := domain.CheckTotals(plan); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	audit := domain.AuditLog{}
	rawAudit, err := e.store.Get(ctx, domain.KeyAuditLog)
	switch {
	case errors.Is(err, domain.ErrBlobNotFound):
		// Digest what Save would write so a clean load is not dirty.
		if rawAudit, err = domain.EncodeAuditLog(audit); err != nil {
			return fmt.Errorf("encode audit log: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read %s: %w", domain.KeyAuditLog, err)
	default:
		if audit, err = domain.ParseAuditLog(rawAudit); err != nil {
			return fmt.Errorf("read %s: %w", domain.KeyAuditLog, err)
		}
	}

	e.current = domain.Snapshot{Plan: plan, Audit: audit}
	e.saved = digests{audit: blake3.Sum256(rawAudit)}
	if key == domain.KeyPlanDraft {
		e.saved.plan = blake3.Sum256(raw)
	}
	e.logger.Debug(plan.ReviewID, "load", fmt.Sprintf("loaded %s (%d sprints, %d audit entries)", key, len(plan.Sprints), len(audit)))
	return nil
}

// Import replaces the current plan with a freshly imported document and resets the audit log.
// An invalid document leaves the current state untouched.
func (e *Engine) Import(ctx context.Context, raw []byte) error {
	plan, err := domain.NewImportedPlan(raw, e.clock.Now(), e.newID())
	if err != nil {
		e.logger.Warn("", "import", err.Error())
		return err
	}
	encPlan, err := domain.EncodePlan(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	encAudit, err := domain.EncodeAuditLog(domain.AuditLog{})
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}

	e.current = domain.Snapshot{Plan: plan, Audit: domain.AuditLog{}}
	e.logger.Info(plan.ReviewID, "import", fmt.Sprintf("imported plan with %d sprints and %d tasks", len(plan.Sprints), plan.TaskCount()))

	// The import blob keeps the document as received.
	return e.write(ctx, map[string][]byte{
		domain.KeyPlanImport: raw,
		domain.KeyPlanDraft:  encPlan,
		domain.KeyAuditLog:   encAudit,
	}, encPlan, encAudit)
}

// ModifyTask edits a task and persists the result.
func (e *Engine) ModifyTask(ctx context.Context, taskID string, edit domain.TaskEdit) error {
	return e.apply(ctx, domain.ActionModifyTask, func(s domain.Snapshot, st domain.Stamp) (domain.Snapshot, error) {
		return domain.ModifyTask(s, taskID, edit, st)
	})
}

// MoveTask moves a task to the end of another sprint and persists the result.
func (e *Engine) MoveTask(ctx context.Context, taskID, targetSprintID string) error {
	return e.apply(ctx, domain.ActionMoveTask, func(s domain.Snapshot, st domain.Stamp) (domain.Snapshot, error) {
		return domain.MoveTask(s, taskID, targetSprintID, st)
	})
}

// RemoveTask soft-deletes a task and persists the result.
func (e *Engine) RemoveTask(ctx context.Context, taskID, reason string) error {
	return e.apply(ctx, domain.ActionRemoveTask, func(s domain.Snapshot, st domain.Stamp) (domain.Snapshot, error) {
		return domain.RemoveTask(s, taskID, reason, st)
	})
}

// AddTask adds a reviewer task and returns its id.
// The id is returned even when only persistence failed, since the task is committed in memory.
func (e *Engine) AddTask(ctx context.Context, in domain.NewTask) (string, error) {
	var id string
	err := e.apply(ctx, domain.ActionAddTask, func(s domain.Snapshot, st domain.Stamp) (domain.Snapshot, error) {
		next, newID, err := domain.AddTask(s, in, st)
		id = newID
		return next, err
	})
	return id, err
}

// Approve marks the plan approved if validation reports no errors.
func (e *Engine) Approve(ctx context.Context) error {
	return e.apply(ctx, domain.ActionApprovePlan, domain.Approve)
}

// apply commits a transition in memory, then persists it.
// A rejected or unencodable transition changes nothing; a failed write keeps the in-memory commit.
func (e *Engine) apply(ctx context.Context, action domain.AuditAction, fn func(domain.Snapshot, domain.Stamp) (domain.Snapshot, error)) error {
	if !e.Loaded() {
		return domain.ErrNoPlan
	}
	reviewID := e.current.Plan.ReviewID

	next, err := fn(e.current, domain.Stamp{At: e.clock.Now(), By: e.actor})
	var encPlan, encAudit []byte
	if err == nil {
		encPlan, encAudit, err = encode(next)
	}
	if err != nil {
		e.logger.Warn(reviewID, string(action), err.Error())
		return err
	}
	e.current = next

	last := next.Audit[len(next.Audit)-1]
	msg := "committed"
	if last.TaskID != "" {
		msg = "committed task " + last.TaskID
	}
	e.logger.Info(reviewID, string(action), msg)

	return e.write(ctx, draftBlobs(encPlan, encAudit), encPlan, encAudit)
}

// Save persists the current plan and audit log unchanged.
func (e *Engine) Save(ctx context.Context) error {
	if !e.Loaded() {
		return domain.ErrNoPlan
	}
	return e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) error {
	encPlan, encAudit, err := encode(e.current)
	if err != nil {
		return err
	}
	return e.write(ctx, draftBlobs(encPlan, encAudit), encPlan, encAudit)
}

func draftBlobs(encPlan, encAudit []byte) map[string][]byte {
	return map[string][]byte{
		domain.KeyPlanDraft: encPlan,
		domain.KeyAuditLog:  encAudit,
	}
}

func (e *Engine) write(ctx context.Context, blobs map[string][]byte, encPlan, encAudit []byte) error {
	if err := e.store.Put(ctx, blobs); err != nil {
		e.logger.Error(e.current.Plan.ReviewID, "persist", err.Error())
		return fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
	}
	e.saved = digests{plan: blake3.Sum256(encPlan), audit: blake3.Sum256(encAudit)}
	return nil
}

func encode(s domain.Snapshot) (plan, audit []byte, err error) {
	plan, err = domain.EncodePlan(s.Plan)
	if err != nil {
		return nil, nil, fmt.Errorf("encode plan: %w", err)
	}
	audit, err = domain.EncodeAuditLog(s.Audit)
	if err != nil {
		return nil, nil, fmt.Errorf("encode audit log: %w", err)
	}
	return plan, audit, nil
}

// Dirty reports whether the in-memory plan or log differs from what was last persisted.
func (e *Engine) Dirty() bool {
	if !e.Loaded() {
		return false
	}
	plan, audit, err := encode(e.current)
	if err != nil {
		return true
	}
	return blake3.Sum256(plan) != e.saved.plan || blake3.Sum256(audit) != e.saved.audit
}

// Clear deletes every persisted copy, then drops the in-memory plan.
// If the store refuses, nothing changes.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.store.Delete(ctx, domain.PlanKeys...); err != nil {
		e.logger.Error(e.reviewID(), "clear", err.Error())
		return fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
	}
	e.logger.Info(e.reviewID(), "clear", "plan and audit log cleared")
	e.current = domain.Snapshot{}
	e.saved = digests{}
	return nil
}

// Export returns the persisted plan and audit documents exactly as stored.
// A plan that was loaded from its import blob exports that blob; a missing audit log exports as empty.
func (e *Engine) Export(ctx context.Context) (*Export, error) {
	plan, err := e.store.Get(ctx, domain.KeyPlanDraft)
	if errors.Is(err, domain.ErrBlobNotFound) {
		plan, err = e.store.Get(ctx, domain.KeyPlanImport)
	}
	if errors.Is(err, domain.ErrBlobNotFound) {
		return nil, domain.ErrNoPlan
	}
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	audit, err := e.store.Get(ctx, domain.KeyAuditLog)
	if errors.Is(err, domain.ErrBlobNotFound) {
		audit, err = domain.EncodeAuditLog(domain.AuditLog{})
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return &Export{
		Plan:        plan,
		Audit:       audit,
		PlanDigest:  Digest(plan),
		AuditDigest: Digest(audit),
	}, nil
}

// Digest returns the hex blake3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (e *Engine) reviewID() string {
	if e.current.Plan == nil {
		return ""
	}
	return e.current.Plan.ReviewID
}
