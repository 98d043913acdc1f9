package viewtree

import "iter"

// Crawl walks a single-parent chain upward starting at start, following
// next until it reports no further element. The sequence is lazy, finite
// for any acyclic chain, and restartable per range statement.
func Crawl[T any](start T, next func(T) (T, bool)) iter.Seq[T] {
	return func(yield func(T) bool) {
		cur, ok := start, true
		for ok {
			if !yield(cur) {
				return
			}
			cur, ok = next(cur)
		}
	}
}

// Flatten yields root and all its descendants in depth-first pre-order.
// The walk uses an explicit stack, so tree depth is bounded by memory
// rather than goroutine stack limits.
func Flatten[T any](root T, children func(T) []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		stack := []T{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			kids := children(n)
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}
}
