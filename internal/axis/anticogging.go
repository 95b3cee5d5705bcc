package axis

import "math"

// AnticoggingMap is the fixed-size circular feed-forward table of spec.md
// §3/§4.3: N single-precision bins indexed by single-turn position,
// entries clamped to ±MaxTorque at every write.
type AnticoggingMap struct {
	bins []float32
}

// NewAnticoggingMap allocates a zeroed map of n bins. n is fixed for the
// lifetime of the map: the underlying slice is never resized after
// construction, matching spec.md §5's "stable buffer whose ... size and
// identity are fixed."
func NewAnticoggingMap(n int) *AnticoggingMap {
	if n <= 0 {
		n = 1
	}
	return &AnticoggingMap{bins: make([]float32, n)}
}

// Len returns N, the number of bins.
func (m *AnticoggingMap) Len() int { return len(m.bins) }

// At returns bin i's current value. Panics on out-of-range i, matching
// standard Go slice semantics; callers pass indices derived from binIndex
// (always in range by construction) or loop indices bounded by Len.
func (m *AnticoggingMap) At(i int) float32 { return m.bins[i] }

// Set writes bin i, clamped to ±maxTorque (invariant 3 of spec.md §3).
func (m *AnticoggingMap) Set(i int, v, maxTorque float64) {
	m.bins[i] = float32(clampf(v, -maxTorque, maxTorque))
}

// binIndex computes the interpolation stencil for a single-turn position
// fraction, per spec.md §4.3: x = frac(pos)*N, i = floor(x), i1 = i+1 mod N,
// f = x - i.
func (m *AnticoggingMap) binIndex(pos float64) (i, i1 int, frac float64) {
	n := len(m.bins)
	p := fmodPos(pos, 1.0)
	x := p * float64(n)
	i = int(math.Floor(x))
	if i >= n {
		i = n - 1
	}
	i1 = (i + 1) % n
	frac = x - float64(i)
	return
}

// Lookup returns the linearly-interpolated feed-forward torque at pos,
// matching the live-lookup block of spec.md §4.3 (always evaluated inside
// the velocity loop's effort, never bypassing anti-windup).
func (m *AnticoggingMap) Lookup(pos float64) float64 {
	i, i1, f := m.binIndex(pos)
	return (1-f)*float64(m.bins[i]) + f*float64(m.bins[i1])
}

// Calibrate applies one tick of the integrator-driven online calibration of
// spec.md §4.3: both straddling bins are nudged toward reducing velErr,
// clamped to ±maxTorque, and correctionPwr is updated with the single-pole
// low-passed RMS of the correction rate.
//
// Callers must only invoke Calibrate when calibrating && control_mode ==
// VELOCITY and both position and velocity estimates are valid (spec.md
// §4.3); this function does not itself check either precondition.
func (m *AnticoggingMap) Calibrate(pos, velErr, integratorGain, maxTorque, dt float64, correctionPwr *float64) {
	i, i1, f := m.binIndex(pos)
	rate := integratorGain * velErr
	delta := rate * dt
	m.Set(i, float64(m.bins[i])+(1-f)*delta, maxTorque)
	m.Set(i1, float64(m.bins[i1])+f*delta, maxTorque)
	*correctionPwr += 0.001 * (rate*rate - *correctionPwr)
}

// RemoveBias subtracts the arithmetic mean of the map from every bin. It is
// idempotent: calling it twice in a row leaves the map at (to float
// precision) the same values the first call produced.
func (m *AnticoggingMap) RemoveBias() {
	var sum float64
	for _, v := range m.bins {
		sum += float64(v)
	}
	mean := float32(sum / float64(len(m.bins)))
	for i := range m.bins {
		m.bins[i] -= mean
	}
}

// fmodPos returns x mod m folded into [0, m), matching the source
// firmware's fmodf_pos (plain math.Mod can return a negative result for
// negative x, which fmodf_pos never does).
func fmodPos(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// wrapPM returns the representative of x modulo m in [-m/2, m/2), the
// signed shortest-arc delta used for circular position error (spec.md §4.4
// and invariant 9 of §8).
func wrapPM(x, m float64) float64 {
	r := fmodPos(x+m/2, m) - m/2
	return r
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
