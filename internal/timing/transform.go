package timing

import "math"

// #region regime
// Regime is the curriculum timing regime a phase maps to.
type Regime int

const (
	// ForcedShort collapses every transformable period to a constant short
	// duration and removes duration jitter.
	ForcedShort Regime = iota
	// ShortVariable keeps each period's distribution family but rescales it
	// to the short duration.
	ShortVariable
	// FullTask restores the original timing unconditionally.
	FullTask
)

// MaxPhase is the terminal curriculum phase; it is never advanced past.
const MaxPhase = 4

// RegimeFor maps a phase to its timing regime.
func RegimeFor(phase int) Regime {
	switch {
	case phase < 2:
		return ForcedShort
	case phase < MaxPhase:
		return ShortVariable
	default:
		return FullTask
	}
}

// JitterFor returns the duration-jitter value for a phase. Jitter is removed
// while timing is constrained (phases 0-2) and restored from phase 3 on.
func JitterFor(phase int, original float64) float64 {
	if phase < 3 {
		return 0
	}
	return original
}

// #endregion regime

// #region transform
// Transform derives the active timing spec for a phase from the immutable
// original snapshot. The last period is treated as fixed and carried over
// unchanged. The transformation is pure: it never mutates original and
// returns the same output for the same (original, phase, shortDur, dt).
func Transform(original Spec, phase int, shortDur, dt float64) Spec {
	out := original.Clone()
	if len(out) == 0 {
		return out
	}

	switch RegimeFor(phase) {
	case ForcedShort:
		for i := range out[:len(out)-1] {
			out[i].Dist = NewConstant(shortDur)
		}
	case ShortVariable:
		for i := range out[:len(out)-1] {
			out[i].Dist = rescale(out[i].Dist, shortDur, dt)
		}
	case FullTask:
		// original snapshot as-is
	}
	return out
}

// rescale shrinks a descriptor to the short duration. Constant periods are
// forced to shortDur; other families have every parameter scaled by
// shortDur over the first original parameter, quantized to a multiple of dt.
func rescale(d Distribution, shortDur, dt float64) Distribution {
	if d.Kind == Constant || len(d.Params) == 0 || d.Params[0] <= 0 {
		return NewConstant(shortDur)
	}
	factor := shortDur / d.Params[0]
	out := Distribution{Kind: d.Kind, Params: make([]float64, len(d.Params))}
	for i, p := range d.Params {
		out.Params[i] = QuantizeToStep(p*factor, dt)
	}
	return out
}

// QuantizeToStep truncates v to a multiple of the base time step.
func QuantizeToStep(v, dt float64) float64 {
	if dt <= 0 {
		return v
	}
	return math.Trunc(v/dt) * dt
}

// #endregion transform
