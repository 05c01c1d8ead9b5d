package logic

import "gonum.org/v1/gonum/stat"

// SampleBuffer is a fixed-capacity ring of sensor readings.
// Every slot always holds a value (zero until first written), so the
// average is taken over the full window from the first tick.
type SampleBuffer struct {
	buf  []float64
	head int // next write position
}

// NewSampleBuffer creates a buffer with n zeroed slots.
func NewSampleBuffer(n int) *SampleBuffer {
	if n < 1 {
		n = 1
	}
	return &SampleBuffer{buf: make([]float64, n)}
}

// Push overwrites the oldest slot with v.
func (b *SampleBuffer) Push(v float64) {
	b.buf[b.head] = v
	b.head = (b.head + 1) % len(b.buf)
}

// Average returns the mean over all slots, recomputed from scratch.
func (b *SampleBuffer) Average() float64 {
	return stat.Mean(b.buf, nil)
}

// Len returns the window size.
func (b *SampleBuffer) Len() int {
	return len(b.buf)
}

// Sampler owns the temperature and gas buffers and derives detector flags.
type Sampler struct {
	temp          *SampleBuffer
	gas           *SampleBuffer
	gasThreshold  float64
	overTempLevel float64
}

// NewSampler creates a sampler with the given window and thresholds.
func NewSampler(window int, gasThreshold, overTempLevel float64) *Sampler {
	return &Sampler{
		temp:          NewSampleBuffer(window),
		gas:           NewSampleBuffer(window),
		gasThreshold:  gasThreshold,
		overTempLevel: overTempLevel,
	}
}

// Sample pushes one raw reading per sensor and returns the new averages and flags.
// Raw values are accepted as-is; out-of-range readings are not rejected.
func (s *Sampler) Sample(tempRaw, gasRaw float64) Reading {
	s.temp.Push(tempRaw)
	s.gas.Push(gasRaw)

	tempC := LM35Celsius(s.temp.Average())
	gasAvg := s.gas.Average()

	return Reading{
		TempC:      tempC,
		GasAverage: gasAvg,
		Flags: Flags{
			Gas:      gasAvg > s.gasThreshold,
			OverTemp: tempC > s.overTempLevel,
		},
	}
}

// LM35Celsius converts a normalized ADC reading (3.3 V full scale) to Celsius
// using the LM35's 10 mV/°C slope.
func LM35Celsius(v float64) float64 {
	return v * 3.3 / 0.01
}

// CelsiusToFahrenheit converts for display.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}
