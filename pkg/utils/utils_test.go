package utils

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestMissing(t *testing.T) {
	want := []string{"head", "torso", "tail", "eyeLeft"}
	tests := []struct {
		name string
		got  []string
		miss []string
	}{
		{"all present", want, nil},
		{"none present", nil, want},
		{"gaps", []string{"head", "eyeLeft"}, []string{"torso", "tail"}},
		{"extras ignored", []string{"head", "torso", "tail", "eyeLeft", "hat"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Missing(want, tt.got); !slices.Equal(got, tt.miss) {
				t.Errorf("Missing = %v, want %v", got, tt.miss)
			}
		})
	}
}

func TestDiffLists(t *testing.T) {
	got := DiffLists([]string{"a", "b"}, []string{"a", "c"})
	var added, removed []string
	for _, d := range got {
		switch d.Op {
		case -1:
			removed = append(removed, d.Text)
		case 1:
			added = append(added, d.Text)
		}
	}
	if !slices.Equal(removed, []string{"b"}) || !slices.Equal(added, []string{"c"}) {
		t.Errorf("DiffLists = %+v", got)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.json")
	if Exists(path) {
		t.Fatal("file exists before Save")
	}
	in := map[string][]int{"milestones": {5, 10}}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load[map[string][]int](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(out["milestones"], in["milestones"]) {
		t.Errorf("Load = %v", out)
	}
	if _, err := Load[int](filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[map[string]int]()
	m.Store("b", 2)
	m.Store("a", 1)
	if v, ok := m.Load("a"); !ok || v != 1 {
		t.Errorf("Load(a) = %d, %v", v, ok)
	}
	keys := m.Keys()
	slices.Sort(keys)
	if m.Len() != 2 || !slices.Equal(keys, []string{"a", "b"}) {
		t.Errorf("keys = %v", keys)
	}
	if got := SortedKeys(map[string]bool{"z": true, "m": true}); !slices.Equal(got, []string{"m", "z"}) {
		t.Errorf("SortedKeys = %v", got)
	}
}
