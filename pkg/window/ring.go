package window

import "github.com/NotCoffee418/slimmemeter/pkg/types"

// RingCapacity is the number of samples kept while the sink lags behind.
const RingCapacity = 10

type slot struct {
	sample   types.Sample
	occupied bool
}

// Ring buffers finalized samples awaiting delivery.
// When full, pushing evicts the oldest pending sample.
type Ring struct {
	slots [RingCapacity]slot
	read  int
	write int
	count int
}

// Push stores s and reports whether an undelivered sample was evicted to make room.
func (r *Ring) Push(s types.Sample) (evicted bool) {
	if r.slots[r.write].occupied {
		// write has caught up with read: drop the oldest.
		r.slots[r.read] = slot{}
		r.read = (r.read + 1) % RingCapacity
		r.count--
		evicted = true
	}

	r.slots[r.write] = slot{sample: s, occupied: true}
	r.write = (r.write + 1) % RingCapacity
	r.count++
	return evicted
}

// Peek returns the oldest pending sample without removing it.
func (r *Ring) Peek() (types.Sample, bool) {
	if !r.slots[r.read].occupied {
		return types.Sample{}, false
	}
	return r.slots[r.read].sample, true
}

// PopIfReady removes and returns the oldest pending sample.
func (r *Ring) PopIfReady() (types.Sample, bool) {
	if !r.slots[r.read].occupied {
		return types.Sample{}, false
	}
	s := r.slots[r.read].sample
	r.slots[r.read] = slot{}
	r.read = (r.read + 1) % RingCapacity
	r.count--
	return s, true
}

// Len is the number of pending samples.
func (r *Ring) Len() int {
	return r.count
}
