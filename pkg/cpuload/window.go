package cpuload

// Window is a fixed-capacity ring of per-interval busy ratios together with
// the running sum of its slots. The slots are allocated once; pushing never
// allocates.
type Window struct {
	slots []uint32
	// next slot to overwrite, which is always the oldest one
	next int
	sum  uint64
}

func NewWindow(size int) *Window {
	return &Window{slots: make([]uint32, size)}
}

// Push overwrites the oldest slot with ratio and returns the evicted value.
// The running sum is adjusted with the evicted and the new value only.
func (w *Window) Push(ratio uint32) uint32 {
	evicted := w.slots[w.next]
	w.sum -= uint64(evicted)
	w.slots[w.next] = ratio
	w.sum += uint64(ratio)
	w.next++
	if w.next >= len(w.slots) {
		w.next = 0
	}
	return evicted
}

func (w *Window) Sum() uint64 {
	return w.sum
}

func (w *Window) Size() int {
	return len(w.slots)
}

// Average of all slots, slots not written yet count as zero
func (w *Window) Average() uint32 {
	return uint32(w.sum / uint64(len(w.slots)))
}

// Values returns a copy of the slots, oldest first
func (w *Window) Values() []uint32 {
	values := make([]uint32, 0, len(w.slots))
	values = append(values, w.slots[w.next:]...)
	values = append(values, w.slots[:w.next]...)
	return values
}
