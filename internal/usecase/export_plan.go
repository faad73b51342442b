package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/plan-review/internal/engine"
)

// Export file names.
const (
	ExportPlanFile  = "final_plan.json"
	ExportAuditFile = "audit_log.json"
)

// ExportPlanInput contains the parameters for exporting.
type ExportPlanInput struct {
	Dir string // Write both documents here; empty returns them without writing
}

// ExportPlanOutput contains the exported documents.
type ExportPlanOutput struct {
	Export    *engine.Export
	PlanPath  string // Set when written to a directory
	AuditPath string // Set when written to a directory
}

// ExportPlan returns the persisted plan and audit log byte for byte.
type ExportPlan struct {
	session PlanSession
}

// NewExportPlan creates a new ExportPlan use case.
func NewExportPlan(session PlanSession) *ExportPlan {
	return &ExportPlan{session: session}
}

// Execute reads the stored documents and optionally writes them to in.Dir.
func (uc *ExportPlan) Execute(ctx context.Context, in ExportPlanInput) (*ExportPlanOutput, error) {
	exp, err := uc.session.Export(ctx)
	if err != nil {
		return nil, err
	}
	out := &ExportPlanOutput{Export: exp}
	if in.Dir == "" {
		return out, nil
	}

	if err := os.MkdirAll(in.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	out.PlanPath = filepath.Join(in.Dir, ExportPlanFile)
	if err := os.WriteFile(out.PlanPath, exp.Plan, 0o600); err != nil {
		return nil, fmt.Errorf("write %s: %w", ExportPlanFile, err)
	}
	out.AuditPath = filepath.Join(in.Dir, ExportAuditFile)
	if err := os.WriteFile(out.AuditPath, exp.Audit, 0o600); err != nil {
		return nil, fmt.Errorf("write %s: %w", ExportAuditFile, err)
	}
	return out, nil
}
