package vector

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromCountsSortsAndDropsZero(t *testing.T) {
	v := FromCounts(map[int]int{3: 1, 1: 2, 7: 0})
	want := Vector{{TermID: 1, Weight: 2}, {TermID: 3, Weight: 1}}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("FromCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestGetNormDot(t *testing.T) {
	a := Vector{{1, 3}, {4, 4}}
	b := Vector{{2, 10}, {4, 2}}
	if got := a.Get(4); got != 4 {
		t.Errorf("Get(4) = %v", got)
	}
	if got := a.Get(2); got != 0 {
		t.Errorf("Get(2) = %v", got)
	}
	if got := a.Norm(); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if got := a.Dot(b); got != 8 {
		t.Errorf("Dot = %v, want 8", got)
	}
	if got := (Vector{}).Norm(); got != 0 {
		t.Errorf("empty Norm = %v", got)
	}
}

func TestApplyDropsZeroWeights(t *testing.T) {
	v := Vector{{1, 2}, {2, 5}}
	got := v.Apply(func(id int, w float64) float64 {
		if id == 2 {
			return 0
		}
		return w * 1.5
	})
	want := Vector{{1, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat(t *testing.T) {
	v := Vector{{1, 2}, {3, 0.5}}
	tests := []struct {
		name string
		f    Formatter
		want string
	}{
		{"count", CountFormat, "1:2 3:1"},
		{"binary", BinaryFormat, "1:1 3:1"},
		{"fixed", FixedFormat(6), "1:2.000000 3:0.500000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Format(tt.f); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
	if got := (Vector{}).Format(CountFormat); got != "" {
		t.Errorf("empty Format = %q", got)
	}
}

func TestParseSkipsMalformedTokens(t *testing.T) {
	v, bad := Parse("1:2 junk 3:x 0:4 5:1.25")
	if bad != 3 {
		t.Errorf("bad = %d, want 3", bad)
	}
	want := Vector{{1, 2}, {5, 1.25}}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsNonFiniteWeights(t *testing.T) {
	v, bad := Parse("1:NaN 2:Inf 3:-Inf 4:0.5")
	if bad != 3 {
		t.Errorf("bad = %d, want 3", bad)
	}
	if diff := cmp.Diff(Vector{{4, 0.5}}, v); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCountsAcceptsPositiveIntegersOnly(t *testing.T) {
	v, bad := ParseCounts("1:2 2:2.5 3:-3 4:0 5:NaN 6:Inf 7:x 8:1")
	if bad != 6 {
		t.Errorf("bad = %d, want 6", bad)
	}
	if diff := cmp.Diff(Vector{{1, 2}, {8, 1}}, v); diff != "" {
		t.Errorf("ParseCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormatRoundTripPrecision(t *testing.T) {
	v := Vector{{2, math.Log(3)}}
	parsed, _ := Parse(v.Format(FixedFormat(6)))
	if math.Abs(parsed.Get(2)-math.Log(3)) > 1e-6 {
		t.Errorf("parsed weight %v too far from %v", parsed.Get(2), math.Log(3))
	}
}
