// Package timewin provides interval math over timestamped windows
// expressed in seconds. All functions are pure.
package timewin

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) share any time.
func Overlaps(aStart, aEnd, bStart, bEnd float64) bool {
	return aEnd > bStart && aStart < bEnd
}

// Clamp bounds x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClampInt bounds x into [lo, hi].
func ClampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Rebase re-anchors the window [start,end) to the local timeline of
// [clipStart,clipEnd), clamping the result to the clip bounds. The
// boolean is false when the window does not overlap the clip at all.
func Rebase(start, end, clipStart, clipEnd float64) (float64, float64, bool) {
	if !Overlaps(start, end, clipStart, clipEnd) {
		return 0, 0, false
	}
	length := clipEnd - clipStart
	localStart := Clamp(start-clipStart, 0, length)
	localEnd := Clamp(end-clipStart, 0, length)
	return localStart, localEnd, true
}
