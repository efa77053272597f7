package world

// RingBuffer is a fixed capacity FIFO. It never grows; when full, the caller
// decides between AddOverwrite (evict oldest) and Clear.
type RingBuffer[T any] struct {
	items []T
	start int
	count int
}

func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{
		items: make([]T, capacity),
	}
}

func (r *RingBuffer[T]) Count() int {
	return r.count
}

func (r *RingBuffer[T]) Capacity() int {
	return len(r.items)
}

func (r *RingBuffer[T]) IsFull() bool {
	return r.count == len(r.items)
}

func (r *RingBuffer[T]) Empty() bool {
	return r.count == 0
}

// Add appends item and reports whether it fit.
func (r *RingBuffer[T]) Add(item T) bool {
	if r.IsFull() {
		return false
	}
	r.items[(r.start+r.count)%len(r.items)] = item
	r.count++
	return true
}

// AddOverwrite appends item, evicting the oldest entry when full.
func (r *RingBuffer[T]) AddOverwrite(item T) {
	if r.IsFull() {
		r.RemoveFromStart(1)
	}
	r.Add(item)
}

// At returns the i-th oldest item.
func (r *RingBuffer[T]) At(i int) (T, bool) {
	if i < 0 || i >= r.count {
		var zero T
		return zero, false
	}
	return r.items[(r.start+i)%len(r.items)], true
}

func (r *RingBuffer[T]) First() (T, bool) {
	return r.At(0)
}

func (r *RingBuffer[T]) Last() (T, bool) {
	return r.At(r.count - 1)
}

// RemoveFromStart drops the k oldest items. k is clamped to Count.
func (r *RingBuffer[T]) RemoveFromStart(k int) {
	if k <= 0 {
		return
	}
	if k >= r.count {
		r.Clear()
		return
	}
	var zero T
	for i := 0; i < k; i++ {
		r.items[(r.start+i)%len(r.items)] = zero
	}
	r.start = (r.start + k) % len(r.items)
	r.count -= k
}

func (r *RingBuffer[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.start = 0
	r.count = 0
}

// ForEach visits items oldest first.
func (r *RingBuffer[T]) ForEach(callback func(int, T)) {
	for i := 0; i < r.count; i++ {
		callback(i, r.items[(r.start+i)%len(r.items)])
	}
}

// Slice copies the items oldest first.
func (r *RingBuffer[T]) Slice() []T {
	out := make([]T, 0, r.count)
	r.ForEach(func(_ int, item T) {
		out = append(out, item)
	})
	return out
}
