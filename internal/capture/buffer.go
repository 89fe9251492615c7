package capture

import (
	"fmt"
	"sync"
	"time"
)

// RingBuffer is a fixed-size circular queue of frames shared by one producer
// and one consumer.
//
// The buffer keeps head (next write) and tail (next read) indices over N
// slots. head == tail means empty and (head+1)%N == tail means full, so at
// most N-1 frames are held. Pushing into a full buffer advances tail first,
// discarding the oldest frame:
//
//	N=4, cap 3:  push a,b,c  -> [a b c _]  tail=0 head=3 (full)
//	             push d      -> [a b c d]  tail=1 head=0 (a evicted)
//	             pop         -> b
//
// Every slot owns a payload buffer sized for maxCells. Push copies the frame
// in and Pop copies it out, so neither side shares memory with the other.
type RingBuffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	slots    []slot
	head     int
	tail     int
	maxCells int
	dropped  uint64
}

type slot struct {
	width  int
	height int
	delta  time.Duration
	data   []byte
}

// NewRingBuffer creates a buffer with the given number of slots, each able to
// hold maxCells bytes without reallocating.
func NewRingBuffer(slots, maxCells int) (*RingBuffer, error) {
	if slots < 2 {
		return nil, fmt.Errorf("ring buffer needs at least 2 slots, got %d", slots)
	}
	if maxCells <= 0 {
		return nil, fmt.Errorf("ring buffer cell limit must be positive, got %d", maxCells)
	}

	r := &RingBuffer{
		slots:    make([]slot, slots),
		maxCells: maxCells,
	}
	for i := range r.slots {
		r.slots[i].data = make([]byte, 0, maxCells)
	}
	r.notEmpty = sync.NewCond(&r.mu)
	r.notFull = sync.NewCond(&r.mu)
	return r, nil
}

// Push inserts a copy of f, evicting the oldest frame when the buffer is
// full. It never blocks beyond the lock and reports whether a frame was
// evicted.
func (r *RingBuffer) Push(f Frame) (evicted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := (r.head + 1) % len(r.slots)
	if next == r.tail {
		r.tail = (r.tail + 1) % len(r.slots)
		r.dropped++
		evicted = true
	}

	s := &r.slots[r.head]
	s.width = f.Width
	s.height = f.Height
	s.delta = f.Delta
	s.data = append(s.data[:0], f.Payload...)
	r.head = next

	r.notEmpty.Signal()
	return evicted
}

// Pop removes and returns the oldest frame. While the buffer is empty it
// waits as long as active reports true. It returns false only when the buffer
// is empty and active reports false.
//
// active is called with the buffer lock held.
func (r *RingBuffer) Pop(active func() bool) (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.head == r.tail && active() {
		r.notEmpty.Wait()
	}
	if r.head == r.tail {
		return Frame{}, false
	}

	s := &r.slots[r.tail]
	f := Frame{
		Width:   s.width,
		Height:  s.height,
		Delta:   s.delta,
		Payload: append([]byte(nil), s.data...),
	}
	r.tail = (r.tail + 1) % len(r.slots)

	r.notFull.Signal()
	return f, true
}

// Wake wakes every goroutine waiting in Pop so it re-evaluates its active
// predicate. Taking the lock orders the wakeup after any in-progress check.
func (r *RingBuffer) Wake() {
	r.mu.Lock()
	r.notEmpty.Broadcast()
	r.mu.Unlock()
}

// Len returns the number of pending frames.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (r.head - r.tail + len(r.slots)) % len(r.slots)
}

// Cap returns the maximum number of pending frames, Slots()-1.
func (r *RingBuffer) Cap() int {
	return len(r.slots) - 1
}

// Slots returns the ring size N.
func (r *RingBuffer) Slots() int {
	return len(r.slots)
}

// MaxCells returns the per-slot payload capacity.
func (r *RingBuffer) MaxCells() int {
	return r.maxCells
}

// Dropped returns how many frames have been evicted by Push.
func (r *RingBuffer) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
