package domain

import (
	"reflect"
	"sort"
)

// Snapshot is a point-in-time copy of a record's fields, nested values included.
type Snapshot map[string]any

// Snapshot captures the current fields so a later Diff can tell what a stage did,
// including edits made in place to nested sub-records.
func (s *State) Snapshot() Snapshot {
	return Snapshot(deepCopyFields(s.Fields()))
}

// StateDiff lists the fields a stage added, overwrote or dropped.
type StateDiff struct {
	Added    []string `json:"added,omitempty"`
	Modified []string `json:"modified,omitempty"`
	Removed  []string `json:"removed,omitempty"`
}

// Diff compares a snapshot taken before a stage with the record after it.
// All lists are sorted.
func Diff(before Snapshot, after *State) *StateDiff {
	diff := &StateDiff{}

	for _, k := range after.Keys() {
		newVal, _ := after.Get(k)
		oldVal, exists := before[k]
		switch {
		case !exists:
			diff.Added = append(diff.Added, k)
		case !reflect.DeepEqual(oldVal, newVal):
			diff.Modified = append(diff.Modified, k)
		}
	}

	for k := range before {
		if !after.Has(k) {
			diff.Removed = append(diff.Removed, k)
		}
	}
	sort.Strings(diff.Removed)

	return diff
}

// Changed returns the added and modified fields, sorted.
func (d *StateDiff) Changed() []string {
	out := make([]string, 0, len(d.Added)+len(d.Modified))
	out = append(out, d.Added...)
	out = append(out, d.Modified...)
	sort.Strings(out)
	return out
}

// IsEmpty checks if the diff contains any changes.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}
