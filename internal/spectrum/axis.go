package spectrum

// Linspace returns n evenly spaced values from a to b inclusive.
// For n == 1 the result is [a].
func Linspace(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = a
		return out
	}
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	out[n-1] = b
	return out
}

// Interp evaluates the piecewise-linear function defined by (x, y) at each
// query point. x must be ascending; query points outside its range are
// clamped to the endpoint values.
func Interp(query, x, y []float64) []float64 {
	out := make([]float64, len(query))
	if len(x) == 0 {
		return out
	}
	for i, q := range query {
		out[i] = interpOne(q, x, y)
	}
	return out
}

func interpOne(q float64, x, y []float64) float64 {
	n := len(x)
	if q <= x[0] {
		return y[0]
	}
	if q >= x[n-1] {
		return y[n-1]
	}
	// First index with x[j] > q; q lies in [x[j-1], x[j]).
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if x[mid] <= q {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	j := lo
	x0, x1 := x[j-1], x[j]
	if x1 == x0 {
		return y[j-1]
	}
	t := (q - x0) / (x1 - x0)
	return y[j-1] + t*(y[j]-y[j-1])
}
