package signal

import (
	"slices"
)

// MedianFilter returns the running median of x over an odd window, treating
// samples beyond either end as zero.
func MedianFilter(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2

	at := func(i int) float64 {
		if i < 0 || i >= n {
			return 0
		}
		return x[i]
	}

	// Sorted copy of the current window.
	win := make([]float64, 0, window)
	for k := -half; k <= half; k++ {
		win = append(win, at(k))
	}
	slices.Sort(win)

	for i := range n {
		out[i] = win[half]
		if i == n-1 {
			break
		}
		outgoing, incoming := at(i-half), at(i+half+1)
		idx, _ := slices.BinarySearch(win, outgoing)
		win = slices.Delete(win, idx, idx+1)
		idx, _ = slices.BinarySearch(win, incoming)
		win = slices.Insert(win, idx, incoming)
	}
	return out
}

// RollingMin returns the centered rolling minimum of x over an odd window.
// The leading half window copies the second full-window value and the
// trailing half window copies the last one.
func RollingMin(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2
	if window > n {
		m := slices.Min(x)
		for i := range out {
			out[i] = m
		}
		return out
	}

	valid := slidingExtreme(x, window, func(a, b float64) bool { return a <= b })
	// valid[j] covers x[j : j+window], centered at j+half.
	for j, v := range valid {
		out[j+half] = v
	}
	if n-2*half > 1 {
		for i := range half {
			out[i] = out[half+1]
			out[n-1-i] = out[n-half-1]
		}
	} else {
		for i := range half {
			out[i] = out[half]
			out[n-1-i] = out[half]
		}
	}
	return out
}

// slidingExtreme returns, for each full window over x, the element preferred
// by keep. keep(a, b) reports whether a should evict b from the back of the
// deque, so <= yields minima and >= yields maxima.
func slidingExtreme(x []float64, window int, keep func(a, b float64) bool) []float64 {
	if window > len(x) || window <= 0 {
		return nil
	}
	out := make([]float64, 0, len(x)-window+1)
	deque := make([]int, 0, window)
	for i, v := range x {
		for len(deque) > 0 && keep(v, x[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] <= i-window {
			deque = deque[1:]
		}
		if i >= window-1 {
			out = append(out, x[deque[0]])
		}
	}
	return out
}

// reflectIndex maps i into [0, n) with half-sample symmetric reflection
// (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// extend pads x on both sides by reflection.
func extend(x []float64, left, right int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+left+right)
	for i := -left; i < n+right; i++ {
		ext = append(ext, x[reflectIndex(i, n)])
	}
	return ext
}

// Erode returns the grey erosion of x with a flat element of the given size.
// The element covers offsets [-size/2, size-1-size/2].
func Erode(x []float64, size int) []float64 {
	left := size / 2
	right := size - 1 - left
	return slidingExtreme(extend(x, left, right), size, func(a, b float64) bool { return a <= b })
}

// Dilate returns the grey dilation of x with the mirror of the Erode element,
// so that Dilate(Erode(x)) is a morphological opening.
func Dilate(x []float64, size int) []float64 {
	right := size / 2
	left := size - 1 - right
	return slidingExtreme(extend(x, left, right), size, func(a, b float64) bool { return a >= b })
}

// WhiteTophat returns x minus its morphological opening, removing structures
// wider than size while keeping narrow peaks. Sizes below MinWindow leave x
// unchanged.
func WhiteTophat(x []float64, size int) []float64 {
	if size < MinWindow || len(x) == 0 {
		return append([]float64(nil), x...)
	}
	opened := Dilate(Erode(x, size), size)
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] - opened[i]
	}
	return out
}
