package domain

import (
	"fmt"
	"math"
)

// Recompute returns a copy of the plan with every derived field brought up to date.
// It never modifies its argument and is idempotent. A nil plan yields nil.
func Recompute(p *Plan) *Plan {
	if p == nil {
		return nil
	}
	c := p.Clone()
	recompute(c)
	return c
}

// recompute updates derived fields in place. Only call it on a private copy.
func recompute(p *Plan) {
	total := 0.0
	for i := range p.Sprints {
		sp := &p.Sprints[i]
		used := sprintUsed(sp)
		sp.UsedDays = used
		sp.RemainingCapacityDays = math.Max(0, sp.Capacity()-used)
		total += used
	}

	p.Summary.NumSprints = len(p.Sprints)
	p.Summary.TotalEstimatedDays = total
	p.Summary.AvgDaysPerSprint = roundTo(total/float64(max(1, len(p.Sprints))), 2)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	if math.IsInf(v*scale, 0) {
		return v
	}
	return math.Round(v*scale) / scale
}

// CheckTotals rejects a recomputed plan whose day sums overflowed.
// It wraps ErrEstimateOverflow.
func CheckTotals(p *Plan) error {
	for i := range p.Sprints {
		if math.IsInf(p.Sprints[i].UsedDays, 0) {
			return fmt.Errorf("%w: %s used_days", ErrEstimateOverflow, p.Sprints[i].SprintID)
		}
	}
	if math.IsInf(p.Summary.TotalEstimatedDays, 0) {
		return fmt.Errorf("%w: total_estimated_days", ErrEstimateOverflow)
	}
	return nil
}
