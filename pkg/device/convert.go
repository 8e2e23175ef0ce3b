package device

// Converter range. The generator takes signed 16-bit codes, so the largest
// positive value is 32767/32768.
const (
	DACMin = -1.0
	DACMax = 32767.0 / 32768.0
)

// ClampDescriptors limits a requested descriptor count to [1, maxDescriptors].
// A non-positive maximum falls back to MaxDescriptors.
func ClampDescriptors(n, maxDescriptors int) int {
	if maxDescriptors <= 0 {
		maxDescriptors = MaxDescriptors
	}
	return max(1, min(n, maxDescriptors))
}

// ClipWaveform returns a copy of w limited to [DACMin, DACMax] and the number
// of samples that had to be changed.
func ClipWaveform(w []float64) ([]float64, int) {
	out := make([]float64, len(w))
	clipped := 0
	for i, v := range w {
		switch {
		case v > DACMax:
			out[i] = DACMax
			clipped++
		case v < DACMin:
			out[i] = DACMin
			clipped++
		default:
			out[i] = v
		}
	}
	return out, clipped
}
