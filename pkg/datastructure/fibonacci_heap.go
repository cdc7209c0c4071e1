package datastructure

import (
	"errors"
	"math"
)

type FibEntry[T any] struct {
	degree int
	marked bool

	next   *FibEntry[T]
	prev   *FibEntry[T]
	child  *FibEntry[T]
	parent *FibEntry[T]

	elem     T
	priority float64
}

func (e *FibEntry[T]) GetPriority() float64 {
	return e.priority
}

func (e *FibEntry[T]) GetElem() T {
	return e.elem
}

/*
FibonacciHeap. insert & decreaseKey amortized O(1), extractMin amortized O(log n).
dipakai untuk antrian urutan kontraksi node.

potential function: pot(H) = t(H) + 2m(H), t = jumlah tree di root list, m = jumlah node yang ditandai.
ref: https://www.utsc.utoronto.ca/~atafliovich/cscb63/content/week10/clrs_fibonacci_chapter.pdf
*/
type FibonacciHeap[T any] struct {
	min  *FibEntry[T]
	size int
}

func NewFibonacciHeap[T any]() *FibonacciHeap[T] {
	return &FibonacciHeap[T]{}
}

func (f *FibonacciHeap[T]) Size() int {
	return f.size
}

func (f *FibonacciHeap[T]) GetMin() *FibEntry[T] {
	return f.min
}

func (f *FibonacciHeap[T]) GetMinRank() float64 {
	if f.min == nil {
		return math.MaxFloat64
	}
	return f.min.priority
}

func (f *FibonacciHeap[T]) Insert(value T, priority float64) *FibEntry[T] {
	e := &FibEntry[T]{elem: value, priority: priority}
	e.next, e.prev = e, e

	f.min = mergeFibLists(f.min, e)
	f.size++
	return e
}

// mergeFibLists gabung dua circular list, return entry dengan priority terkecil.
func mergeFibLists[T any](one, two *FibEntry[T]) *FibEntry[T] {
	switch {
	case one == nil:
		return two
	case two == nil:
		return one
	}

	oneNext := one.next
	one.next = two.next
	one.next.prev = one
	two.next = oneNext
	two.next.prev = two

	if one.priority < two.priority {
		return one
	}
	return two
}

func (f *FibonacciHeap[T]) DecreaseKey(entry *FibEntry[T], newPriority float64) error {
	if newPriority > entry.priority {
		return errors.New("new priority must be less or equal than old priority")
	}

	entry.priority = newPriority
	if entry.parent != nil && entry.priority <= entry.parent.priority {
		f.cut(entry)
	}
	if entry.priority < f.min.priority {
		f.min = entry
	}
	return nil
}

// cut pindahkan entry ke root list, cascading cut ke parent yang sudah ditandai.
func (f *FibonacciHeap[T]) cut(entry *FibEntry[T]) {
	entry.marked = false
	parent := entry.parent
	if parent == nil {
		return
	}

	entry.next.prev = entry.prev
	entry.prev.next = entry.next
	if parent.child == entry {
		if entry.next != entry {
			parent.child = entry.next
		} else {
			parent.child = nil
		}
	}
	parent.degree--

	entry.next, entry.prev = entry, entry
	entry.parent = nil
	f.min = mergeFibLists(f.min, entry)

	if parent.marked {
		f.cut(parent)
	} else {
		parent.marked = true
	}
}

func (f *FibonacciHeap[T]) ExtractMin() (*FibEntry[T], error) {
	if f.min == nil {
		return nil, ErrHeapEmpty
	}
	f.size--

	minElem := f.min
	if f.min.next == f.min {
		f.min = nil
	} else {
		f.min.prev.next = f.min.next
		f.min.next.prev = f.min.prev
		f.min = f.min.next
	}

	if child := minElem.child; child != nil {
		curr := child
		for {
			curr.parent = nil
			curr = curr.next
			if curr == child {
				break
			}
		}
	}

	f.min = mergeFibLists(f.min, minElem.child)
	minElem.next, minElem.prev, minElem.child = minElem, minElem, nil
	if f.min == nil {
		return minElem, nil
	}

	f.consolidate()
	return minElem, nil
}

// consolidate gabung tree dengan degree sama sampai semua root degree nya unik.
func (f *FibonacciHeap[T]) consolidate() {
	roots := make([]*FibEntry[T], 0)
	for curr := f.min; len(roots) == 0 || roots[0] != curr; curr = curr.next {
		roots = append(roots, curr)
	}

	treeTable := make([]*FibEntry[T], 0)
	for _, curr := range roots {
		for {
			for curr.degree >= len(treeTable) {
				treeTable = append(treeTable, nil)
			}

			other := treeTable[curr.degree]
			if other == nil {
				treeTable[curr.degree] = curr
				break
			}
			treeTable[curr.degree] = nil

			small, large := curr, other
			if other.priority < curr.priority {
				small, large = other, curr
			}

			large.next.prev = large.prev
			large.prev.next = large.next
			large.next, large.prev = large, large
			small.child = mergeFibLists(small.child, large)
			large.parent = small
			large.marked = false
			small.degree++

			curr = small
		}

		if curr.priority <= f.min.priority {
			f.min = curr
		}
	}
}
