package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// extraFields holds document keys the model does not interpret,
// so they survive an import / save round trip unchanged.
type extraFields map[string]json.RawMessage

func (e extraFields) clone() extraFields {
	if e == nil {
		return nil
	}
	c := make(extraFields, len(e))
	for k, v := range e {
		c[k] = bytes.Clone(v)
	}
	return c
}

// Known JSON keys per type. Everything else lands in Extra.
var (
	planKeys    = []string{"review_id", "status", "original_goal", "last_modified_utc", "approved_by", "approved_at_utc", "sprints", "summary"}
	sprintKeys  = []string{"sprint_id", "tasks", "capacity_days", "used_days", "remaining_capacity_days"}
	taskKeys    = []string{"id", "title", "type", "status", "removed_reason", "depends_on", "estimate_days"}
	summaryKeys = []string{"num_sprints", "total_estimated_days", "avg_days_per_sprint"}
)

// splitExtra returns the keys of a JSON object that are not in known.
func splitExtra(data []byte, known []string) (extraFields, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return extraFields(all), nil
}

// mergeExtra adds extra keys to an encoded JSON object without overriding known ones.
func mergeExtra(encoded []byte, extra extraFields) ([]byte, error) {
	if len(extra) == 0 {
		return encoded, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	b, err := json.Marshal(plain(t))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, t.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, taskKeys)
	if err != nil {
		return err
	}
	*t = Task(v)
	t.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Sprint) MarshalJSON() ([]byte, error) {
	type plain Sprint
	b, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, s.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sprint) UnmarshalJSON(data []byte) error {
	type plain Sprint
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, sprintKeys)
	if err != nil {
		return err
	}
	*s = Sprint(v)
	s.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	b, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, s.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Summary) UnmarshalJSON(data []byte) error {
	type plain Summary
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, summaryKeys)
	if err != nil {
		return err
	}
	*s = Summary(v)
	s.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Plan) MarshalJSON() ([]byte, error) {
	type plain Plan
	b, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, p.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Plan) UnmarshalJSON(data []byte) error {
	type plain Plan
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, planKeys)
	if err != nil {
		return err
	}
	*p = Plan(v)
	p.Extra = extra
	return nil
}

// ExtraKeys returns the preserved, uninterpreted top-level keys of the plan document.
func (p *Plan) ExtraKeys() []string {
	return slices.Sorted(maps.Keys(p.Extra))
}

// ParsePlan decodes a plan document and normalizes it.
// It does not stamp timestamps or recompute; see NewImportedPlan.
func ParsePlan(raw []byte) (*Plan, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidInput, err)
	}
	sprints, ok := top["sprints"]
	if !ok || bytes.Equal(bytes.TrimSpace(sprints), []byte("null")) {
		return nil, fmt.Errorf("%w: document has no sprints", ErrInvalidInput)
	}

	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := checkUniqueIDs(&p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func checkUniqueIDs(p *Plan) error {
	sprintIDs := make(map[string]bool, len(p.Sprints))
	taskIDs := make(map[string]bool)
	for _, sp := range p.Sprints {
		if sprintIDs[sp.SprintID] {
			return fmt.Errorf("%w: duplicate sprint id %q", ErrInvalidInput, sp.SprintID)
		}
		sprintIDs[sp.SprintID] = true
		for _, t := range sp.Tasks {
			if taskIDs[t.ID] {
				return fmt.Errorf("%w: duplicate task id %q", ErrInvalidInput, t.ID)
			}
			taskIDs[t.ID] = true
		}
	}
	return nil
}

// EncodePlan renders the plan document persisted and exported by the engine.
func EncodePlan(p *Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// auditDocument is the persisted shape of the audit log.
type auditDocument struct {
	AuditLog AuditLog `json:"audit_log"`
}

// EncodeAuditLog renders the audit-log document.
func EncodeAuditLog(log AuditLog) ([]byte, error) {
	if log == nil {
		log = AuditLog{}
	}
	return json.MarshalIndent(auditDocument{AuditLog: log}, "", "  ")
}

// ParseAuditLog decodes an audit-log document. A missing audit_log key yields an empty log.
func ParseAuditLog(raw []byte) (AuditLog, error) {
	var doc auditDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed audit log: %v", ErrInvalidInput, err)
	}
	if doc.AuditLog == nil {
		return AuditLog{}, nil
	}
	return doc.AuditLog, nil
}
