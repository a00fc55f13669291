package utils

import (
	"slices"

	"github.com/aryann/difflib"
)

// ListDelta is one entry of a list comparison. Op is 0 for common entries,
// -1 for entries only in the left list and +1 for entries only in the right.
type ListDelta struct {
	Op   int    `json:"op"`
	Text string `json:"text"`
}

// DiffLists compares two ordered string lists.
func DiffLists(a, b []string) []ListDelta {
	if slices.Equal(a, b) {
		out := make([]ListDelta, len(a))
		for i, s := range a {
			out[i] = ListDelta{Op: 0, Text: s}
		}
		return out
	}
	if len(a) == 0 || len(b) == 0 {
		out := make([]ListDelta, 0, len(a)+len(b))
		for _, s := range a {
			out = append(out, ListDelta{Op: -1, Text: s})
		}
		for _, s := range b {
			out = append(out, ListDelta{Op: +1, Text: s})
		}
		return out
	}
	recs := difflib.Diff(a, b)
	out := make([]ListDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			out = append(out, ListDelta{Op: 0, Text: r.Payload})
		case difflib.LeftOnly:
			out = append(out, ListDelta{Op: -1, Text: r.Payload})
		case difflib.RightOnly:
			out = append(out, ListDelta{Op: +1, Text: r.Payload})
		}
	}
	return out
}

// Missing returns the entries of want that do not appear in got, in the
// order of want.
func Missing(want, got []string) []string {
	var out []string
	for _, d := range DiffLists(want, got) {
		if d.Op < 0 {
			out = append(out, d.Text)
		}
	}
	return out
}
