// Package peaks extracts local maxima from 1-D curves under joint height,
// prominence and distance constraints.
package peaks

import "sort"

// Options constrains which local maxima qualify. Nil bounds are ignored.
type Options struct {
	Height     *float64 // minimum peak value
	Prominence *float64 // minimum prominence
	Distance   int      // minimum index spacing between accepted peaks, 0 = none
}

// Peak is an accepted local maximum with its diagnostic scalars. Prominence
// is measured against the higher of the two base minima; LeftBase and
// RightBase are the indices of those minima.
type Peak struct {
	Index      int
	Height     float64
	Prominence float64
	LeftBase   int
	RightBase  int
}

// Find returns the local maxima of values satisfying all constraints,
// ordered by index. A sample is a local maximum when it exceeds both
// neighbors; flat-topped maxima are reported at the plateau midpoint.
// Endpoints cannot be peaks. Constraints apply in order: height, distance
// (keeping higher peaks when two conflict), prominence.
func Find(values []float64, opts Options) []Peak {
	candidates := localMaxima(values)

	if opts.Height != nil {
		kept := candidates[:0]
		for _, idx := range candidates {
			if values[idx] >= *opts.Height {
				kept = append(kept, idx)
			}
		}
		candidates = kept
	}

	if opts.Distance > 1 {
		candidates = enforceDistance(candidates, values, opts.Distance)
	}

	out := make([]Peak, 0, len(candidates))
	for _, idx := range candidates {
		p := Peak{Index: idx, Height: values[idx]}
		p.Prominence, p.LeftBase, p.RightBase = prominence(values, idx)
		if opts.Prominence != nil && p.Prominence < *opts.Prominence {
			continue
		}
		out = append(out, p)
	}
	return out
}

func localMaxima(values []float64) []int {
	var out []int
	n := len(values)
	i := 1
	for i < n-1 {
		if values[i-1] >= values[i] {
			i++
			continue
		}
		// Ascended into i; walk any plateau.
		j := i
		for j < n-1 && values[j+1] == values[i] {
			j++
		}
		if j < n-1 && values[j+1] < values[i] {
			out = append(out, (i+j)/2)
		}
		i = j + 1
	}
	return out
}

// enforceDistance removes peaks closer than distance to a higher peak.
// Peaks are considered highest first, so the tallest of a cluster survives.
func enforceDistance(candidates []int, values []float64, distance int) []int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[candidates[order[a]]] > values[candidates[order[b]]]
	})

	removed := make([]bool, len(candidates))
	for _, oi := range order {
		if removed[oi] {
			continue
		}
		for j := oi - 1; j >= 0 && candidates[oi]-candidates[j] < distance; j-- {
			removed[j] = true
		}
		for j := oi + 1; j < len(candidates) && candidates[j]-candidates[oi] < distance; j++ {
			removed[j] = true
		}
	}

	kept := candidates[:0]
	for i, idx := range candidates {
		if !removed[i] {
			kept = append(kept, idx)
		}
	}
	return kept
}

// prominence measures how far the peak rises above its surroundings: scan
// outward on each side until a higher sample or the curve edge, track the
// minimum on the way, and take the higher of the two minima as the base.
func prominence(values []float64, idx int) (prom float64, leftBase, rightBase int) {
	peak := values[idx]

	leftMin := peak
	leftBase = idx
	for j := idx - 1; j >= 0 && values[j] <= peak; j-- {
		if values[j] < leftMin {
			leftMin = values[j]
			leftBase = j
		}
	}

	rightMin := peak
	rightBase = idx
	for j := idx + 1; j < len(values) && values[j] <= peak; j++ {
		if values[j] < rightMin {
			rightMin = values[j]
			rightBase = j
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return peak - base, leftBase, rightBase
}
