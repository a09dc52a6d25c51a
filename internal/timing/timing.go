package timing

// #region kinds
// Kind names the distribution family of a period duration descriptor.
type Kind string

const (
	Constant             Kind = "constant"
	Uniform              Kind = "uniform"
	Choice               Kind = "choice"
	TruncatedExponential Kind = "truncated_exponential"
)

// #endregion kinds

// #region distribution
// Distribution is a tagged duration descriptor: a distribution kind plus its
// numeric parameters, all in the environment's time units (ms).
//
// Parameter layout by kind:
//
//	constant              [duration]
//	uniform               [low, high]
//	choice                [v1, ..., vn]
//	truncated_exponential [mean, min, max]
type Distribution struct {
	Kind   Kind      `json:"kind"`
	Params []float64 `json:"params"`
}

// NewConstant builds a constant-duration descriptor.
func NewConstant(dur float64) Distribution {
	return Distribution{Kind: Constant, Params: []float64{dur}}
}

// NewUniform builds a uniform-duration descriptor over [low, high].
func NewUniform(low, high float64) Distribution {
	return Distribution{Kind: Uniform, Params: []float64{low, high}}
}

// NewTruncatedExponential builds an exponential descriptor with the given
// mean, truncated to [min, max].
func NewTruncatedExponential(mean, min, max float64) Distribution {
	return Distribution{Kind: TruncatedExponential, Params: []float64{mean, min, max}}
}

// Clone returns a deep copy of the descriptor.
func (d Distribution) Clone() Distribution {
	out := Distribution{Kind: d.Kind}
	if d.Params != nil {
		out.Params = make([]float64, len(d.Params))
		copy(out.Params, d.Params)
	}
	return out
}

// Equal reports whether two descriptors have the same kind and parameters.
func (d Distribution) Equal(other Distribution) bool {
	if d.Kind != other.Kind || len(d.Params) != len(other.Params) {
		return false
	}
	for i := range d.Params {
		if d.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

// #endregion distribution

// #region spec
// Period pairs a named trial period with its duration descriptor.
type Period struct {
	Name string       `json:"name"`
	Dist Distribution `json:"dist"`
}

// Spec is an ordered mapping from period name to duration descriptor.
// Order matters: periods run in sequence within a trial, and the last
// period is treated as fixed by the phase transformation.
type Spec []Period

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	out := make(Spec, len(s))
	for i, p := range s {
		out[i] = Period{Name: p.Name, Dist: p.Dist.Clone()}
	}
	return out
}

// Get returns the descriptor for a named period.
func (s Spec) Get(name string) (Distribution, bool) {
	for _, p := range s {
		if p.Name == name {
			return p.Dist, true
		}
	}
	return Distribution{}, false
}

// Names returns the period names in order.
func (s Spec) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// Equal reports whether two specs match period by period.
func (s Spec) Equal(other Spec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Name != other[i].Name || !s[i].Dist.Equal(other[i].Dist) {
			return false
		}
	}
	return true
}

// #endregion spec
