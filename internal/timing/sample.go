package timing

import "math/rand"

// #region sample
// Sample draws one period duration from d, adds gaussian duration jitter
// when jitter > 0, and quantizes the result to a multiple of dt. The
// returned duration is never below one time step.
func Sample(d Distribution, jitter, dt float64, rng *rand.Rand) float64 {
	var v float64
	switch d.Kind {
	case Constant:
		if len(d.Params) > 0 {
			v = d.Params[0]
		}
	case Uniform:
		if len(d.Params) >= 2 {
			low, high := d.Params[0], d.Params[1]
			if high < low {
				low, high = high, low
			}
			v = low + rng.Float64()*(high-low)
		}
	case Choice:
		if len(d.Params) > 0 {
			v = d.Params[rng.Intn(len(d.Params))]
		}
	case TruncatedExponential:
		if len(d.Params) >= 3 {
			mean, min, max := d.Params[0], d.Params[1], d.Params[2]
			v = rng.ExpFloat64() * mean
			if v < min {
				v = min
			}
			if v > max {
				v = max
			}
		}
	}

	if jitter > 0 {
		v += rng.NormFloat64() * jitter
	}

	v = QuantizeToStep(v, dt)
	if v < dt {
		v = dt
	}
	return v
}

// #endregion sample
