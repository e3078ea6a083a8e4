package starfield

import "sort"

// AvoidMargin expands every avoid rectangle vertically.
const AvoidMargin = 24.0

// safeBand is the fraction of viewport height meteors may start in.
const safeBand = 0.6

// PickSafeY picks a meteor start height in the top 60% of height that
// avoids rects expanded by margin. With no rects, or no free space left,
// it samples the whole band.
func PickSafeY(height float64, rects []Rect, margin float64, rnd func() float64) float64 {
	limit := height * safeBand
	if limit <= 0 {
		return 0
	}
	if len(rects) == 0 {
		return rnd() * limit
	}

	type interval struct{ lo, hi float64 }
	blocked := make([]interval, 0, len(rects))
	for _, r := range rects {
		lo := max(r.Y-margin, 0)
		hi := min(r.Y+r.H+margin, limit)
		if hi > lo {
			blocked = append(blocked, interval{lo, hi})
		}
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].lo < blocked[j].lo })

	var free []interval
	cursor := 0.0
	for _, b := range blocked {
		if b.lo > cursor {
			free = append(free, interval{cursor, b.lo})
		}
		cursor = max(cursor, b.hi)
	}
	if cursor < limit {
		free = append(free, interval{cursor, limit})
	}

	if len(free) == 0 {
		return rnd() * limit
	}
	idx := min(int(rnd()*float64(len(free))), len(free)-1)
	f := free[idx]
	return f.lo + rnd()*(f.hi-f.lo)
}
