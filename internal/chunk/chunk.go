// Package chunk splits a sequence length into bounded windows so that every
// downstream request stays within backend size and time limits.
//
// All ranges are half-open: a Range covers indices Start through End-1, so
// xs[r.Start:r.End] is always the correct slice expression.
package chunk

import (
	"fmt"
	"iter"
)

// Range is a half-open index window [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Ranges returns a lazy sequence of contiguous windows covering [0, n), each
// at most step wide. n <= 0 yields nothing. The sequence may be ranged over
// any number of times. Ranges panics if step is not positive.
func Ranges(n, step int) iter.Seq[Range] {
	if step <= 0 {
		panic(fmt.Sprintf("chunk: step must be positive, got %d", step))
	}
	return func(yield func(Range) bool) {
		for start := 0; start < n; start += step {
			end := min(start+step, n)
			if !yield(Range{Start: start, End: end}) {
				return
			}
		}
	}
}

// Slices yields consecutive sub-slices of xs no longer than step.
func Slices[T any](xs []T, step int) iter.Seq[[]T] {
	ranges := Ranges(len(xs), step)
	return func(yield func([]T) bool) {
		for r := range ranges {
			if !yield(xs[r.Start:r.End]) {
				return
			}
		}
	}
}

// Collect splits xs into chunks of at most step elements.
func Collect[T any](xs []T, step int) [][]T {
	var out [][]T
	for c := range Slices(xs, step) {
		out = append(out, c)
	}
	return out
}

// Zip pairs two chunk lists positionally. The shorter list is padded with
// empty chunks so every pair can be issued together in a single pass.
func Zip[A, B any](as [][]A, bs [][]B) iter.Seq2[[]A, []B] {
	return func(yield func([]A, []B) bool) {
		n := max(len(as), len(bs))
		for i := range n {
			var a []A
			var b []B
			if i < len(as) {
				a = as[i]
			}
			if i < len(bs) {
				b = bs[i]
			}
			if !yield(a, b) {
				return
			}
		}
	}
}
