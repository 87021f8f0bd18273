package pathfind

import "container/heap"

// candidate is a node waiting in the frontier with its tentative distance.
type candidate struct {
	id       string
	distance float64
}

// frontier is a min-heap of candidates ordered by distance, then by id so
// that equal distances pop in a reproducible order.
type frontier []candidate

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].distance != f[j].distance {
		return f[i].distance < f[j].distance
	}
	return f[i].id < f[j].id
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(candidate)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

func newFrontier(capacity int) *frontier {
	f := make(frontier, 0, capacity)
	heap.Init(&f)
	return &f
}
