// Package score holds the composite scoring functions and the daily fear/greed service.
package score

import (
	"math"

	"alpha-move/internal/domain"
)

// BlockchainVolumeScore buckets a chain's 24h DEX volume in USD into 10..100.
// Buckets are $1B wide up to $8B, then [8B, 10B) scores 90 and anything above scores 100.
func BlockchainVolumeScore(usd float64) int {
	const billion = 1_000_000_000.0
	switch {
	case usd < 8*billion:
		if usd < 0 {
			usd = 0
		}
		return 10 * (int(usd/billion) + 1)
	case usd < 10*billion:
		return 90
	default:
		return 100
	}
}

// MomentumScore maps the mean day-over-day percent change of closes onto 0..100,
// centred on 50. Fewer than two closes, or a zero close, yields a neutral 50.
func MomentumScore(closes []float64) float64 {
	if len(closes) < 2 {
		return 50
	}
	var sum float64
	n := 0
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		sum += (closes[i] - prev) / prev * 100
		n++
	}
	if n == 0 {
		return 50
	}
	return clamp(50+sum/float64(n), 0, 100)
}

// CompositeFearGreed averages three 0..100 component scores, rounding down.
func CompositeFearGreed(a, b, c float64) int {
	return int(math.Floor((a + b + c) / 3))
}

// Classify names the band of a composite value.
func Classify(value int) string {
	switch {
	case value < 25:
		return domain.ClassExtremeFear
	case value < 50:
		return domain.ClassFear
	case value < 75:
		return domain.ClassGreed
	default:
		return domain.ClassExtremeGreed
	}
}

// Mindshare returns each volume's percentage of the total.
// A zero or negative total yields all zeros.
func Mindshare(volumes []float64) []float64 {
	shares := make([]float64, len(volumes))
	var total float64
	for _, v := range volumes {
		total += v
	}
	if total <= 0 {
		return shares
	}
	for i, v := range volumes {
		shares[i] = v / total * 100
	}
	return shares
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
