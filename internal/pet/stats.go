package pet

import "math"

// Gauge bounds shared by every stat.
const (
	MinStat = 0.0
	MaxStat = 100.0
)

// Stats are the pet's four gauges (0–100).
type Stats struct {
	Energy   float64 `json:"energy" yaml:"energy"`
	Diet     float64 `json:"diet" yaml:"diet"`
	Sleep    float64 `json:"sleep" yaml:"sleep"`
	Exercise float64 `json:"exercise" yaml:"exercise"`
}

// StatsPatch is a partial stats update. Nil fields are left untouched.
type StatsPatch struct {
	Energy   *float64
	Diet     *float64
	Sleep    *float64
	Exercise *float64
}

// Value returns a pointer for building patches inline.
func Value(v float64) *float64 {
	return &v
}

// Average is the mean of all gauges.
func (s Stats) Average() float64 {
	return (s.Energy + s.Diet + s.Sleep + s.Exercise) / 4
}

// Clamped returns a copy with every gauge inside [MinStat, MaxStat].
func (s Stats) Clamped() Stats {
	return Stats{
		Energy:   clamp(s.Energy),
		Diet:     clamp(s.Diet),
		Sleep:    clamp(s.Sleep),
		Exercise: clamp(s.Exercise),
	}
}

// Merge applies a patch, clamping only the touched fields.
func (s Stats) Merge(p StatsPatch) Stats {
	if p.Energy != nil {
		s.Energy = clamp(*p.Energy)
	}
	if p.Diet != nil {
		s.Diet = clamp(*p.Diet)
	}
	if p.Sleep != nil {
		s.Sleep = clamp(*p.Sleep)
	}
	if p.Exercise != nil {
		s.Exercise = clamp(*p.Exercise)
	}
	return s
}

// Add applies signed deltas and clamps the result.
func (s Stats) Add(d Stats) Stats {
	return Stats{
		Energy:   s.Energy + d.Energy,
		Diet:     s.Diet + d.Diet,
		Sleep:    s.Sleep + d.Sleep,
		Exercise: s.Exercise + d.Exercise,
	}.Clamped()
}

// Decay subtracts per-gauge rates, floored at MinStat. It never raises a
// gauge: negative rates are ignored.
func (s Stats) Decay(rates Stats) Stats {
	return Stats{
		Energy:   decayGauge(s.Energy, rates.Energy),
		Diet:     decayGauge(s.Diet, rates.Diet),
		Sleep:    decayGauge(s.Sleep, rates.Sleep),
		Exercise: decayGauge(s.Exercise, rates.Exercise),
	}
}

// Lowest returns the name and value of the weakest gauge.
func (s Stats) Lowest() (string, float64) {
	name, v := "energy", s.Energy
	if s.Diet < v {
		name, v = "diet", s.Diet
	}
	if s.Sleep < v {
		name, v = "sleep", s.Sleep
	}
	if s.Exercise < v {
		name, v = "exercise", s.Exercise
	}
	return name, v
}

func decayGauge(v, rate float64) float64 {
	if rate < 0 {
		rate = 0
	}
	if v > MaxStat {
		v = MaxStat
	}
	v -= rate
	if v < MinStat {
		return MinStat
	}
	return v
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}
