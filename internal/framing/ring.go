package framing

// ring is a fixed-capacity FIFO over a slice allocated once. head is the next
// write index, tail the next read index.
type ring[T any] struct {
	buf   []T
	head  int
	tail  int
	count int
}

func newRing[T any](size int) ring[T] {
	return ring[T]{buf: make([]T, size)}
}

func (r *ring[T]) size() int { return len(r.buf) }
func (r *ring[T]) len() int { return r.count }
func (r *ring[T]) empty() bool { return r.count == 0 }
func (r *ring[T]) full() bool { return r.count == len(r.buf) }

func (r *ring[T]) next(i int) int {
	i++
	if i == len(r.buf) {
		return 0
	}
	return i
}

// push appends v, returning false when the ring is full.
func (r *ring[T]) push(v T) bool {
	if r.full() {
		return false
	}
	r.buf[r.head] = v
	r.head = r.next(r.head)
	r.count++
	return true
}

// pop removes the oldest element.
func (r *ring[T]) pop() (T, bool) {
	var zero T
	if r.empty() {
		return zero, false
	}
	v := r.buf[r.tail]
	r.buf[r.tail] = zero
	r.tail = r.next(r.tail)
	r.count--
	return v, true
}

// popInto moves the len(dst) oldest elements into dst, in at most two copies.
// It returns the number of elements moved.
func (r *ring[T]) popInto(dst []T) int {
	n := min(len(dst), r.count)
	first := min(n, len(r.buf)-r.tail)
	copy(dst, r.buf[r.tail:r.tail+first])
	copy(dst[first:n], r.buf[:n-first])
	r.discard(n)
	return n
}

// discard drops the n oldest elements.
func (r *ring[T]) discard(n int) {
	n = min(n, r.count)
	r.tail = (r.tail + n) % len(r.buf)
	r.count -= n
}

// truncate drops the n newest elements.
func (r *ring[T]) truncate(n int) {
	n = min(n, r.count)
	r.head = (r.head - n + len(r.buf)) % len(r.buf)
	r.count -= n
}

func (r *ring[T]) reset() {
	r.head, r.tail, r.count = 0, 0, 0
}

// spanLen is the length of the span [begin, end) in a cyclic buffer of size
// elements. end < begin means the span wrapped past the end of the storage.
func spanLen(begin, end, size int) int {
	if end < begin {
		return size - begin + end
	}
	return end - begin
}
