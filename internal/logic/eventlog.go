package logic

// Edge remembers the last observed value of a monitored element.
type Edge[T comparable] struct {
	last T
}

// Observe stores current and returns the value it replaced.
func (e *Edge[T]) Observe(current T) (previous T) {
	previous = e.last
	e.last = current
	return previous
}

// Last returns the most recently observed value.
func (e *Edge[T]) Last() T {
	return e.last
}

// EventLog is a bounded, oldest-first list of ON transitions.
type EventLog struct {
	records [LogCapacity]Record
	count   int
}

// RecordIfEdge appends "<element>_ON" stamped with seconds when current is a
// rising edge relative to previous. When full, the oldest record is evicted.
// OFF transitions are never recorded.
func (l *EventLog) RecordIfEdge(previous, current bool, element string, seconds int64) (Record, bool) {
	if !current || previous == current {
		return Record{}, false
	}

	label := element + "_ON"
	if len(label) > LabelMaxLength {
		label = label[:LabelMaxLength]
	}
	r := Record{Seconds: seconds, Label: label}

	if l.count == LogCapacity {
		copy(l.records[:], l.records[1:])
		l.count--
	}
	l.records[l.count] = r
	l.count++
	return r, true
}

// Records returns a copy of the log, oldest first.
func (l *EventLog) Records() []Record {
	out := make([]Record, l.count)
	copy(out, l.records[:l.count])
	return out
}

// Len returns the number of stored records.
func (l *EventLog) Len() int {
	return l.count
}
