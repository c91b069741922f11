package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		before Snapshot
		after  map[string]any
		want   *StateDiff
	}{
		{
			name:   "Initial Fields (Before Empty)",
			before: Snapshot{},
			after:  map[string]any{"a": 1, "b": "x"},
			want:   &StateDiff{Added: []string{"a", "b"}},
		},
		{
			name:   "No Changes",
			before: Snapshot{"a": 1},
			after:  map[string]any{"a": 1},
			want:   &StateDiff{},
		},
		{
			name:   "Added & Modified",
			before: Snapshot{"a": 1, "b": "old"},
			after:  map[string]any{"a": 1, "b": "new", "c": true},
			want:   &StateDiff{Added: []string{"c"}, Modified: []string{"b"}},
		},
		{
			name:   "Nested Modification",
			before: Snapshot{"entities": map[string]any{"product": "A"}},
			after:  map[string]any{"entities": map[string]any{"product": "B"}},
			want:   &StateDiff{Modified: []string{"entities"}},
		},
		{
			name:   "Removal",
			before: Snapshot{"a": 1, "b": 2},
			after:  map[string]any{"a": 1},
			want:   &StateDiff{Removed: []string{"b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.before, NewStateFrom(tt.after))
			if !reflect.DeepEqual(got.Added, tt.want.Added) {
				t.Errorf("Diff().Added = %v, want %v", got.Added, tt.want.Added)
			}
			if !reflect.DeepEqual(got.Modified, tt.want.Modified) {
				t.Errorf("Diff().Modified = %v, want %v", got.Modified, tt.want.Modified)
			}
			if !reflect.DeepEqual(got.Removed, tt.want.Removed) {
				t.Errorf("Diff().Removed = %v, want %v", got.Removed, tt.want.Removed)
			}
		})
	}
}

func TestDiff_Changed(t *testing.T) {
	before := Snapshot{"b": 1}
	after := NewStateFrom(map[string]any{"b": 2, "a": true})

	diff := Diff(before, after)
	if got := diff.Changed(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Changed() = %v, want [a b]", got)
	}
	if diff.IsEmpty() {
		t.Error("expected non-empty diff")
	}
}

func TestDiff_SnapshotIsolation(t *testing.T) {
	s := NewStateFrom(map[string]any{"a": 1})
	snap := s.Snapshot()
	s.Set("a", 2)

	if snap["a"] != 1 {
		t.Errorf("snapshot should not follow later writes, got %v", snap["a"])
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	diff := Diff(Snapshot{"a": 1}, NewStateFrom(map[string]any{"a": 1}))

	bytes, err := json.Marshal(diff)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(bytes), `"added"`) {
		t.Errorf("JSON should omit empty lists, got: %s", string(bytes))
	}
}

func TestDiff_NestedEditInPlace(t *testing.T) {
	nested := map[string]any{"intent": "password reset"}
	s := NewStateFrom(map[string]any{"structured_query": nested})
	snap := s.Snapshot()

	nested["intent"] = "billing"

	diff := Diff(snap, s)
	if !reflect.DeepEqual(diff.Modified, []string{"structured_query"}) {
		t.Errorf("Diff().Modified = %v, want [structured_query]", diff.Modified)
	}
}
