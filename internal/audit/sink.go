package audit

// Sink receives audit entries in the order they were produced.
// Append must not block for long and has no error path; sinks that can fail
// report failures through their own channel (see WriterSink).
type Sink interface {
	Append(entry Entry)
}

// Lister enumerates recorded entries.
type Lister interface {
	// Newest returns up to limit records, newest first (0 = no limit).
	Newest(limit int) []Record

	// All returns every record in insertion order.
	All() []Record
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(entry Entry)

// Append calls f(entry).
func (f SinkFunc) Append(entry Entry) {
	f(entry)
}

// MultiSink delivers each entry to every wrapped sink, in order.
type MultiSink []Sink

// NewMultiSink returns a MultiSink over the non-nil sinks given.
func NewMultiSink(sinks ...Sink) MultiSink {
	out := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Append forwards entry to each sink.
func (m MultiSink) Append(entry Entry) {
	for _, s := range m {
		s.Append(entry)
	}
}
