package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/plan-review/internal/domain"
)

// ShowStatusInput contains the parameters for the status summary.
type ShowStatusInput struct{}

// ShowStatusOutput summarizes the review.
// Fields are ordered to minimize memory padding.
type ShowStatusOutput struct {
	ReviewID        string
	Status          domain.PlanStatus
	LastModifiedUTC string
	ApprovedBy      string
	ApprovedAtUTC   string
	Store           *domain.StoreStats // Nil when the store keeps no write history
	Summary         domain.Summary
	Sprints         int
	ActiveTasks     int
	RemovedTasks    int
	AuditEntries    int
	Errors          int
	Warnings        int
	HasPlan         bool
	Dirty           bool
}

// ShowStatus is the use case for summarizing the review state.
type ShowStatus struct {
	session PlanSession
	store   domain.StoreInspector
}

// NewShowStatus creates a new ShowStatus use case.
// store may be nil.
func NewShowStatus(session PlanSession, store domain.StoreInspector) *ShowStatus {
	return &ShowStatus{session: session, store: store}
}

// Execute returns the summary. Having no plan is not an error.
func (uc *ShowStatus) Execute(ctx context.Context, _ ShowStatusInput) (*ShowStatusOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		if errors.Is(err, domain.ErrNoPlan) {
			return &ShowStatusOutput{}, nil
		}
		return nil, err
	}

	plan, err := uc.session.Plan()
	if err != nil {
		return nil, err
	}
	log, err := uc.session.Audit()
	if err != nil {
		return nil, err
	}
	result, err := uc.session.Validate()
	if err != nil {
		return nil, err
	}

	out := &ShowStatusOutput{
		HasPlan:         true,
		ReviewID:        plan.ReviewID,
		Status:          plan.Status,
		LastModifiedUTC: plan.LastModifiedUTC,
		ApprovedBy:      plan.ApprovedBy,
		ApprovedAtUTC:   plan.ApprovedAtUTC,
		Summary:         plan.Summary,
		Sprints:         len(plan.Sprints),
		AuditEntries:    len(log),
		Errors:          len(result.Errors),
		Warnings:        len(result.Warnings),
		Dirty:           uc.session.Dirty(),
	}
	for _, t := range plan.AllTasks() {
		if t.IsRemoved() {
			out.RemovedTasks++
		} else {
			out.ActiveTasks++
		}
	}

	if uc.store != nil {
		stats, err := uc.store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("store stats: %w", err)
		}
		out.Store = &stats
	}
	return out, nil
}
