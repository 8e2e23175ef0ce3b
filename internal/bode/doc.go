// Package bode estimates the frequency response of a device under test from
// repeated broadband-noise acquisitions.
//
// An Accumulator keeps running means of the excitation auto-spectrum and the
// response/excitation cross-spectrum. Each Estimate divides the two (the H1
// estimator) and masks bins whose excitation power is too far below the peak.
// CorrectDelay fits a straight line to the unwrapped phase inside a band and
// removes the corresponding bulk delay from the whole spectrum, and Normalize
// divides a measurement by a stored loopback Reference.
//
//	acc, _ := bode.NewAccumulator(bode.AccumulatorConfig{NFFT: 65536, SampleRate: 250e6})
//	for k := 0; k < 200; k++ {
//	    x, y := capture()
//	    _ = acc.Update(x, y)
//	}
//	est := acc.Estimate(bode.DefaultThreshold)
//	res, _ := bode.CorrectDelay(est.H, est.Grid, 250e6, bode.Band{Lo: 1e6, Hi: 50e6}, est.Mask)
//	view := bode.ToBode(est.Grid, res.H, true)
package bode
