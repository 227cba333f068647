package bus

// messageLog is a capacity-bounded append-only log. On overflow it evicts
// the oldest entries down to 80% of capacity in one step, so a steady
// stream of publishes does not trim on every call. Eviction advances a
// start index; the backing slice is compacted only when the dead prefix
// grows past capacity, keeping appends O(1) amortized.
type messageLog struct {
	entries  []Message
	start    int
	capacity int
}

const trimRatio = 0.8

func newMessageLog(capacity int) *messageLog {
	if capacity < 1 {
		capacity = 1
	}
	return &messageLog{
		entries:  make([]Message, 0, capacity),
		capacity: capacity,
	}
}

func (l *messageLog) append(m Message) {
	l.entries = append(l.entries, m)
	if l.len() > l.capacity {
		keep := int(float64(l.capacity) * trimRatio)
		if keep < 1 {
			keep = 1
		}
		l.start = len(l.entries) - keep
	}
	if l.start > l.capacity {
		l.entries = append(l.entries[:0:0], l.entries[l.start:]...)
		l.start = 0
	}
}

func (l *messageLog) len() int {
	return len(l.entries) - l.start
}

// all returns the live window of the log in append order. The returned
// slice aliases internal storage; callers must copy before retaining.
func (l *messageLog) all() []Message {
	return l.entries[l.start:]
}

func (l *messageLog) reset() {
	l.entries = l.entries[:0]
	l.start = 0
}
