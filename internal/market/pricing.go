package market

import (
	"hash/fnv"
	"math"
	"time"
)

// fundamentalPriceMicros derives the per-share anchor price from a company's
// annual revenue and fundamental multiple. Returns 0 when no anchor can be
// derived; callers fall back to the current price.
func fundamentalPriceMicros(revenueAnnualMicros int64, multiple float64, totalShares int64) int64 {
	if totalShares <= 0 {
		return 0
	}
	if math.IsNaN(multiple) || math.IsInf(multiple, 0) || multiple <= 0 {
		return 0
	}
	raw := float64(revenueAnnualMicros) * multiple / float64(totalShares)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if raw < float64(fundamentalFloorMicros) {
		// Zero revenue still anchors at a small positive floor, never zero.
		return fundamentalFloorMicros
	}
	if raw > float64(MaxPriceMicros) {
		return MaxPriceMicros
	}
	return int64(math.Round(raw))
}

// tickVolatility scales an annualized volatility down to one tick's standard
// deviation.
func tickVolatility(annual, ticksPerYear float64) float64 {
	if annual <= 0 || ticksPerYear <= 0 {
		return 0
	}
	return annual / math.Sqrt(ticksPerYear)
}

// trendSeed hashes an instrument's stable symbol into a numeric seed. Pure
// function: the same symbol always yields the same seed, so each instrument
// keeps a persistent cyclical drift across restarts.
func trendSeed(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return h.Sum64()
}

// trendBias is a slow oscillation phased by the instrument's seed and driven
// by wall-clock time, scaled small relative to the tick volatility.
func trendBias(symbol string, now time.Time, tickVol, weight float64, period time.Duration) float64 {
	if tickVol == 0 || weight == 0 || period <= 0 {
		return 0
	}
	phase := float64(trendSeed(symbol)%1_000_000) / 1_000_000 * 2 * math.Pi
	cycle := float64(now.Unix()) / period.Seconds()
	return math.Sin(2*math.Pi*cycle+phase) * tickVol * weight
}

// stepStockPrice advances one stock price by one tick: short-term noise at
// full tick volatility, medium-term noise at half weight, trend bias, then a
// pull of the candidate toward the fundamental anchor. draw must return
// uniform values in [-1, 1].
func stepStockPrice(priceMicros, anchorMicros int64, tickVol, bias, reversion float64, draw func() float64) (int64, error) {
	if priceMicros <= 0 {
		return 0, ErrInvalidComputation
	}
	noise := draw()*tickVol + 0.5*draw()*tickVol
	candidate := float64(priceMicros) * (1 + noise + bias)
	if anchorMicros > 0 && reversion > 0 {
		candidate += reversion * (float64(anchorMicros) - candidate)
	}
	return clampPriceMicros(candidate)
}

// stepCryptoPrice is the same walk with no anchor and no reversion.
func stepCryptoPrice(priceMicros int64, tickVol, bias float64, draw func() float64) (int64, error) {
	if priceMicros <= 0 {
		return 0, ErrInvalidComputation
	}
	noise := draw()*tickVol + 0.5*draw()*tickVol
	return clampPriceMicros(float64(priceMicros) * (1 + noise + bias))
}
