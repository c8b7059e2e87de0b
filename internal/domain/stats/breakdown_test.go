package stats

import (
	"math"
	"testing"
)

func TestNormalizeBreakdown(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Breakdown
	}{
		{
			name: "list of keyed items",
			raw: []any{
				map[string]any{"key": "kills", "points": 12.5},
				map[string]any{"metric": "clutch", "pts": 3.0},
				map[string]any{"stat": "adr_rt", "score": 2.0},
				map[string]any{"label": "bonus", "points": 1.0},
			},
			want: Breakdown{"kills": 12.5, "clutch": 3, "adr_rt": 2, "bonus": 1},
		},
		{
			name: "map of items and bare numbers",
			raw: map[string]any{
				"kills":  map[string]any{"points": 10.0},
				"deaths": -4.5,
				"multi":  map[string]any{"pts": 6.0},
			},
			want: Breakdown{"kills": 10, "deaths": -4.5, "multi": 6},
		},
		{
			name: "unresolvable points contribute zero",
			raw: []any{
				map[string]any{"key": "kills"},
				map[string]any{"key": "clutch", "points": "oops"},
				map[string]any{"points": 99.0}, // no key at all
				"not an item",
			},
			want: Breakdown{"kills": 0, "clutch": 0},
		},
		{
			name: "nil input",
			raw:  nil,
			want: Breakdown{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBreakdown(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d keys, got %d (%v)", len(tt.want), len(got), got)
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Fatalf("key %s: expected %v, got %v", key, want, got[key])
				}
			}
		})
	}
}

func TestMergeBreakdownsOrderIndependent(t *testing.T) {
	a := Breakdown{"kills": 12, "clutch": 3, "bonus": 1}
	b := Breakdown{"kills": 8, "multi": 6}
	c := Breakdown{"clutch": 5, "deaths": -4}

	forward := MergeBreakdowns(a, b, c)
	reversed := MergeBreakdowns(c, b, a)

	if len(forward) != len(reversed) {
		t.Fatalf("merge orders diverged: %v vs %v", forward, reversed)
	}
	for key, pts := range forward {
		if reversed[key] != pts {
			t.Fatalf("key %s: %v vs %v", key, pts, reversed[key])
		}
	}
}

func TestMergeBreakdownsPreservesTotal(t *testing.T) {
	a := Breakdown{"kills": 12.5, "deaths": -4.5}
	b := Breakdown{"kills": 7.5, "clutch": 3}

	merged := MergeBreakdowns(a, b)
	want := a.Total() + b.Total()
	if math.Abs(merged.Total()-want) > 1e-9 {
		t.Fatalf("expected merged total %v, got %v", want, merged.Total())
	}
	if merged["kills"] != 20 {
		t.Fatalf("expected kills=20, got %v", merged["kills"])
	}
}
