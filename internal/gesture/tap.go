package gesture

// TapState is owned by a single TapDetector.
type TapState struct {
	Count         int
	Last          Sample
	ContactActive bool
}

// TapDetector counts repeated taps landing close together in space and time.
// It is not safe for concurrent use; the tap worker owns it.
type TapDetector struct {
	tuning TapTuning
	state  TapState
}

// NewTapDetector returns an empty detector.
func NewTapDetector(t TapTuning) *TapDetector {
	return &TapDetector{tuning: t}
}

// State returns a copy of the current state.
func (d *TapDetector) State() TapState {
	return d.state
}

// Touch feeds a position of the current contact. Only the first position of
// each contact counts as a tap; the rest are ignored until Lift.
func (d *TapDetector) Touch(s Sample, threshold int) bool {
	if d.state.ContactActive {
		return false
	}
	d.state.ContactActive = true
	return d.Sample(s, threshold)
}

// Sample counts one tap and reports whether the wake gesture fired.
//
// The gesture fires once the count exceeds threshold, so a threshold of N
// needs N+1 taps and a threshold of 0 fires on every tap.
func (d *TapDetector) Sample(s Sample, threshold int) bool {
	switch {
	case d.state.Count == 0:
		d.begin(s)
	case d.state.Count <= threshold && d.repeats(s):
		// Only the timestamp moves; the first tap stays the spatial anchor.
		d.state.Last.Time = s.Time
		d.state.Count++
	default:
		d.Reset()
		d.begin(s)
	}

	if d.state.Count > threshold {
		d.Reset()
		return true
	}
	return false
}

// Lift ends the current contact without touching the count.
func (d *TapDetector) Lift() {
	d.state.ContactActive = false
}

// Reset drops the accumulated taps.
func (d *TapDetector) Reset() {
	d.state.Count = 0
	d.state.Last = Sample{}
}

func (d *TapDetector) begin(s Sample) {
	d.state.Last = s
	d.state.Count = 1
}

func (d *TapDetector) repeats(s Sample) bool {
	near := abs(s.X-d.state.Last.X) < d.tuning.Feather || abs(s.Y-d.state.Last.Y) < d.tuning.Feather
	return near && s.Time.Sub(d.state.Last.Time) < d.tuning.TimeGap
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
