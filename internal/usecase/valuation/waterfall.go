package valuation

import "slices"

// Claim is one loan's claim on a collateral asset.
type Claim struct {
	Share    float64 // allocation as a fraction of 1
	Priority int     // 1 is the most senior
	Exposure float64
}

// Waterfall splits value across claims and writes each recovery to dst,
// which is grown as needed and returned. Every claim first receives its
// pro-rata share capped at its exposure. Allocated value left unused by a
// fully covered claim then flows to the others in priority order.
func Waterfall(dst []float64, value float64, claims []Claim) []float64 {
	if cap(dst) < len(claims) {
		dst = make([]float64, len(claims))
	}
	dst = dst[:len(claims)]
	if value <= 0 {
		clear(dst)
		return dst
	}

	pool := 0.0
	for i, c := range claims {
		share := value * c.Share
		got := min(share, max(c.Exposure, 0))
		dst[i] = got
		pool += share - got
	}
	if pool <= 0 {
		return dst
	}

	order := make([]int, len(claims))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return claims[a].Priority - claims[b].Priority })
	for _, i := range order {
		if pool <= 0 {
			break
		}
		take := min(pool, claims[i].Exposure-dst[i])
		if take > 0 {
			dst[i] += take
			pool -= take
		}
	}
	return dst
}
