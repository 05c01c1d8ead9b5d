package analog

import "errors"

// FakeReader is a test double that returns scripted samples.
type FakeReader struct {
	// Samples contains the sequence of readings to return.
	// If exhausted, the last sample repeats.
	Samples []Sample

	index int

	// ReadError, if set, is returned by Read.
	ReadError error

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (Sample, error) {
	f.Reads++
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
