package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationResult lists consistency findings for a plan.
// Errors block approval; warnings are advisory.
type ValidationResult struct {
	Errors   []string `json:"errors" yaml:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// HasErrors reports whether any blocking finding exists.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// titleEntry is the resolution of a dependency title.
type titleEntry struct {
	task   *Task
	sprint int
}

// indexTitles maps trimmed titles to tasks across the whole plan, removed tasks included.
// When titles collide an active task wins over a removed one; otherwise the later task wins.
func indexTitles(p *Plan) map[string]titleEntry {
	idx := make(map[string]titleEntry)
	for i := range p.Sprints {
		for j := range p.Sprints[i].Tasks {
			t := &p.Sprints[i].Tasks[j]
			key := t.TitleKey()
			if key == "" {
				continue
			}
			if prev, ok := idx[key]; ok && !prev.task.IsRemoved() && t.IsRemoved() {
				continue
			}
			idx[key] = titleEntry{task: t, sprint: i}
		}
	}
	return idx
}

// Validate checks dependency integrity, sprint ordering, capacity and cycles. It never modifies p.
func Validate(p *Plan) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}
	if p == nil {
		return res
	}
	idx := indexTitles(p)

	for i := range p.Sprints {
		for j := range p.Sprints[i].Tasks {
			t := &p.Sprints[i].Tasks[j]
			if t.IsRemoved() {
				continue
			}
			for _, dep := range t.DependsOn {
				e, ok := idx[strings.TrimSpace(dep)]
				switch {
				case !ok:
					res.Errors = append(res.Errors, fmt.Sprintf("Task '%s' depends on missing task title '%s'.", t.Title, dep))
				case e.task.IsRemoved():
					res.Errors = append(res.Errors, fmt.Sprintf("Task '%s' depends on REMOVED task '%s'.", t.Title, dep))
				}
			}
		}
	}

	for i := range p.Sprints {
		for j := range p.Sprints[i].Tasks {
			t := &p.Sprints[i].Tasks[j]
			if t.IsRemoved() {
				continue
			}
			for _, dep := range t.DependsOn {
				e, ok := idx[strings.TrimSpace(dep)]
				if !ok || e.sprint <= i {
					continue
				}
				res.Errors = append(res.Errors, fmt.Sprintf(
					"Sprint ordering error: '%s' is in Sprint %d but dependency '%s' is in Sprint %d.",
					t.Title, i+1, dep, e.sprint+1))
			}
		}
	}

	res.Errors = append(res.Errors, duplicateTitleErrors(p)...)

	for i := range p.Sprints {
		sp := &p.Sprints[i]
		used := sprintUsed(sp)
		if used > sp.Capacity() {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Capacity warning: %s used_days=%s > capacity_days=%s.",
				sp.SprintID, formatDays(used), formatDays(sp.Capacity())))
		}
	}

	// Cycles are advisory.
	for _, cycle := range findCycles(p, idx) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Dependency cycle detected: %s.", strings.Join(cycle, " -> ")))
	}

	return res
}

// duplicateTitleErrors reports titles shared by more than one active task.
func duplicateTitleErrors(p *Plan) []string {
	var order []string
	ids := make(map[string][]string)
	for _, t := range p.AllTasks() {
		key := t.TitleKey()
		if t.IsRemoved() || key == "" {
			continue
		}
		if _, seen := ids[key]; !seen {
			order = append(order, key)
		}
		ids[key] = append(ids[key], t.ID)
	}

	var errs []string
	for _, key := range order {
		if len(ids[key]) < 2 {
			continue
		}
		errs = append(errs, fmt.Sprintf(
			"Duplicate task title '%s' is used by tasks %s; dependency references to it are ambiguous.",
			key, strings.Join(ids[key], ", ")))
	}
	return errs
}

// findCycles returns each dependency cycle among active tasks as a title path
// whose first and last element are the same task.
func findCycles(p *Plan, idx map[string]titleEntry) [][]string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Task]int)
	var stack []*Task
	var cycles [][]string

	var visit func(t *Task)
	visit = func(t *Task) {
		state[t] = visiting
		stack = append(stack, t)
		for _, dep := range t.DependsOn {
			e, ok := idx[strings.TrimSpace(dep)]
			if !ok || e.task.IsRemoved() {
				continue
			}
			switch state[e.task] {
			case unvisited:
				visit(e.task)
			case visiting:
				start := slices.Index(stack, e.task)
				path := make([]string, 0, len(stack)-start+1)
				for _, s := range stack[start:] {
					path = append(path, s.Title)
				}
				cycles = append(cycles, append(path, e.task.Title))
			}
		}
		stack = stack[:len(stack)-1]
		state[t] = done
	}

	for _, t := range p.AllTasks() {
		if !t.IsRemoved() && state[t] == unvisited {
			visit(t)
		}
	}
	return cycles
}

func sprintUsed(sp *Sprint) float64 {
	used := 0.0
	for j := range sp.Tasks {
		if !sp.Tasks[j].IsRemoved() {
			used += sp.Tasks[j].Estimate()
		}
	}
	return used
}

// formatDays renders a day count the way the plan documents do: 8, 2.5.
func formatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
