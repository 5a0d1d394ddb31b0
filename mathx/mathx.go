// Package mathx provides small generic numeric helpers, ported from the
// teacher's utils.Min/Max/Abs (golang.org/x/exp/constraints) and extended
// with Clamp for the brightness-scaling use spec.md §6 needs.
package mathx

import "golang.org/x/exp/constraints"

// Min returns the smaller of x and y.
func Min[T constraints.Ordered](x, y T) T {
	if x < y {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func Max[T constraints.Ordered](x, y T) T {
	if x > y {
		return x
	}
	return y
}

// Abs returns the absolute value of x.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return Min(Max(v, lo), hi)
}
