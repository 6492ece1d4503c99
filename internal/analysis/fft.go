package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
)

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of ys sampled every sampleDt seconds. The series is truncated to
// the largest power of two and its mean removed first.
func DominantFrequency(ys []float64, sampleDt float64) (float64, error) {
	if sampleDt <= 0 {
		return 0, fmt.Errorf("sample interval must be positive, got %v", sampleDt)
	}
	n := 1
	for n*2 <= len(ys) {
		n *= 2
	}
	if n < 4 {
		return 0, fmt.Errorf("need at least 4 samples, got %d", len(ys))
	}

	data := make([]float64, n)
	mean := 0.0
	for _, y := range ys[:n] {
		mean += y
	}
	mean /= float64(n)
	for i, y := range ys[:n] {
		data[i] = y - mean
	}

	ps := PowerSpectrum(data)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	return float64(peak) / (float64(n) * sampleDt), nil
}
