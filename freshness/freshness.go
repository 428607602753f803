// Package freshness computes the decay score of spec §4.4's freshness
// update: a pure function of logical input-index time, so it gives the
// same answer whether it is evaluated transiently on a discovery read or
// persisted by attestation.RecalculateFreshness — see DESIGN.md's Open
// Question decisions.
package freshness

import "math/bits"

// pow2Frac[k] holds round(2^(-1/2^k) * 65536) for k = 1..16. Folding these
// in from the most significant fractional bit down lets Score evaluate
// 2^-x for any 16-bit fractional x entirely in Q16.16 fixed point, with a
// fixed evaluation order independent of platform transcendental
// functions (spec §5).
var pow2Frac = [17]uint32{
	0,     // unused
	46341, // 2^(-1/2)
	55109, // 2^(-1/4)
	60097,
	62757,
	64132,
	64830,
	65182,
	65359,
	65447,
	65492,
	65514,
	65525,
	65530,
	65533,
	65535,
	65535,
}

// maxHalvings bounds the integer part of the exponent: 100 * 2^-7 < 1,
// so elapsed/halfLife >= maxHalvings always floors to zero regardless of
// the fractional remainder.
const maxHalvings = 7

// fixedFraction returns floor(remainder * 65536 / halfLife) as a Q16.16
// fractional value. remainder < halfLife always holds here, so the
// quotient is always < 65536 and bits.Div64's overflow precondition
// (hi < y) is guaranteed.
func fixedFraction(remainder, halfLife int64) uint32 {
	hi, lo := bits.Mul64(uint64(remainder), 1<<16)
	q, _ := bits.Div64(hi, lo, uint64(halfLife))
	return uint32(q)
}

func clamp(score, minFreshness int) int {
	if score < minFreshness {
		return minFreshness
	}
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// Score computes freshness = max(min_freshness, floor(100 * (1/2)^((current -
// attestedAt) / halfLife))), entirely in integer and Q16.16 fixed-point
// arithmetic: no floating-point transcendental function ever runs, so the
// result is bit-identical across platforms (spec §5). halfLife must be
// positive; callers validate that at schema-registration time (spec §3
// invariant).
func Score(attestedAtInput, currentInput, halfLife int64, minFreshness int) int {
	elapsed := currentInput - attestedAtInput
	if elapsed <= 0 {
		return 100
	}
	if halfLife <= 0 {
		return clamp(0, minFreshness)
	}

	halvings := elapsed / halfLife
	if halvings >= maxHalvings {
		return clamp(0, minFreshness)
	}
	remainder := elapsed % halfLife

	acc := int64(100) << 16
	acc >>= uint(halvings)

	frac := fixedFraction(remainder, halfLife)
	for bit := uint(1); bit <= 16; bit++ {
		if frac&(1<<(16-bit)) != 0 {
			acc = (acc * int64(pow2Frac[bit])) >> 16
		}
	}

	return clamp(int(acc>>16), minFreshness)
}
