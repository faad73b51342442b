package usecase

import (
	"context"

	"github.com/runoshun/plan-review/internal/domain"
)

// ShowAuditInput contains the parameters for listing audit entries.
type ShowAuditInput struct {
	TaskID string // Only entries for this task; empty lists all
	Limit  int    // Most recent N entries (0 = all)
}

// ShowAuditOutput contains audit entries, oldest first.
type ShowAuditOutput struct {
	Entries domain.AuditLog
	Total   int // Entries in the whole log
}

// ShowAudit is the use case for viewing the audit log.
type ShowAudit struct {
	session PlanSession
}

// NewShowAudit creates a new ShowAudit use case.
func NewShowAudit(session PlanSession) *ShowAudit {
	return &ShowAudit{session: session}
}

// Execute returns the filtered audit entries.
func (uc *ShowAudit) Execute(ctx context.Context, in ShowAuditInput) (*ShowAuditOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}
	log, err := uc.session.Audit()
	if err != nil {
		return nil, err
	}

	entries := domain.AuditLog{}
	for _, e := range log {
		if in.TaskID == "" || e.TaskID == in.TaskID {
			entries = append(entries, e)
		}
	}
	if in.Limit > 0 && len(entries) > in.Limit {
		entries = entries[len(entries)-in.Limit:]
	}
	return &ShowAuditOutput{Entries: entries, Total: len(log)}, nil
}
