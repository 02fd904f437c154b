package cgr

import "math"

// Periodize builds an enlarged working plan around clock time now: for
// period P, let k = floor(now/P), and emit two time-shifted copies of every
// base contact, offset by k*P and (k+1)*P. This guarantees a non-empty
// window of future contacts surrounding now even when the base plan spans a
// single orbit far shorter than the simulated horizon. Copies keep their
// base id; the search treats them as distinct contacts by slice index and
// never deduplicates by id.
func Periodize(base Plan, now, period float64) Plan {
	if period <= 0 || len(base) == 0 {
		return base.Clone()
	}

	k := math.Floor(now / period)
	out := make(Plan, 0, len(base)*2)
	out = append(out, shiftPlan(base, k*period)...)
	out = append(out, shiftPlan(base, (k+1)*period)...)
	return out
}

func shiftPlan(base Plan, offset float64) Plan {
	out := make(Plan, len(base))
	for i, c := range base {
		c.TStart += offset
		c.TEnd += offset
		out[i] = c
	}
	return out
}

// InferPeriod derives an auto-period from the base plan's observed
// temporal span: max(t_end) - min(t_start). Returns 0 for an empty plan,
// which callers treat as "do not periodize".
func InferPeriod(base Plan) float64 {
	if len(base) == 0 {
		return 0
	}
	minStart := base[0].TStart
	maxEnd := base[0].TEnd
	for _, c := range base[1:] {
		if c.TStart < minStart {
			minStart = c.TStart
		}
		if c.TEnd > maxEnd {
			maxEnd = c.TEnd
		}
	}
	return maxEnd - minStart
}
