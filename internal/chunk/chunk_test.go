package chunk

import (
	"slices"
	"testing"
)

func collectRanges(n, step int) []Range {
	var out []Range
	for r := range Ranges(n, step) {
		out = append(out, r)
	}
	return out
}

func TestRanges(t *testing.T) {
	tests := []struct {
		name string
		n    int
		step int
		want []Range
	}{
		{name: "empty", n: 0, step: 10, want: nil},
		{name: "negative length", n: -3, step: 10, want: nil},
		{name: "shorter than step", n: 7, step: 10, want: []Range{{0, 7}}},
		{name: "equal to step", n: 10, step: 10, want: []Range{{0, 10}}},
		{name: "exact multiple", n: 20, step: 10, want: []Range{{0, 10}, {10, 20}}},
		{name: "remainder", n: 25, step: 10, want: []Range{{0, 10}, {10, 20}, {20, 25}}},
		{name: "step of one", n: 3, step: 1, want: []Range{{0, 1}, {1, 2}, {2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectRanges(tt.n, tt.step)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Ranges(%d, %d) = %v, want %v", tt.n, tt.step, got, tt.want)
			}
		})
	}
}

func TestRanges_CoverageProperty(t *testing.T) {
	for n := 0; n <= 60; n++ {
		for step := 1; step <= 13; step++ {
			next := 0
			for r := range Ranges(n, step) {
				if r.Start != next {
					t.Fatalf("Ranges(%d, %d): range %v starts at %d, want %d", n, step, r, r.Start, next)
				}
				if r.Len() <= 0 || r.Len() > step {
					t.Fatalf("Ranges(%d, %d): range %v has width %d", n, step, r, r.Len())
				}
				next = r.End
			}
			if next != n {
				t.Fatalf("Ranges(%d, %d) covered [0,%d), want [0,%d)", n, step, next, n)
			}
		}
	}
}

func TestRanges_Restartable(t *testing.T) {
	seq := Ranges(9, 4)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second iteration = %v, want %v", second, first)
	}
}

func TestRanges_StopsEarly(t *testing.T) {
	count := 0
	for range Ranges(100, 10) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestRanges_PanicsOnNonPositiveStep(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Ranges(10, 0) did not panic")
		}
	}()
	Ranges(10, 0)
}

func TestCollect(t *testing.T) {
	got := Collect([]int{1, 2, 3, 4, 5}, 2)
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if len(got) != len(want) {
		t.Fatalf("Collect() returned %d chunks, want %d", len(got), len(want))
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("chunk %d = %v, want %v", i, got[i], want[i])
		}
	}

	if got := Collect([]int{}, 3); got != nil {
		t.Errorf("Collect(empty) = %v, want nil", got)
	}
}

func TestZip(t *testing.T) {
	adds := [][]string{{"a", "b"}, {"c"}}
	dels := [][]int{{1}, {2}, {3}}

	var pairs int
	var gotAdds, gotDels []int
	for a, d := range Zip(adds, dels) {
		pairs++
		gotAdds = append(gotAdds, len(a))
		gotDels = append(gotDels, len(d))
	}

	if pairs != 3 {
		t.Fatalf("Zip() produced %d pairs, want 3", pairs)
	}
	if !slices.Equal(gotAdds, []int{2, 1, 0}) {
		t.Errorf("add chunk sizes = %v, want [2 1 0]", gotAdds)
	}
	if !slices.Equal(gotDels, []int{1, 1, 1}) {
		t.Errorf("delete chunk sizes = %v, want [1 1 1]", gotDels)
	}
}
