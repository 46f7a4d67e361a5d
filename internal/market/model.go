package market

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"
)

const (
	MicrosPerCoin = int64(1_000_000)

	ShareScale = int64(10_000) // 1 share = 10_000 units.

	// Price bounds enforced by clamping. The floor keeps every instrument
	// strictly positive; the ceiling keeps notional math inside int64.
	MinPriceMicros = int64(1)
	MaxPriceMicros = int64(2_000_000_000_000_000)

	// Smallest fundamental anchor a company with revenue can produce.
	fundamentalFloorMicros = int64(10_000) // 0.01 coin
)

const (
	KindStock  = "stock"
	KindCrypto = "crypto"
)

var (
	ErrTickInProgress      = errors.New("tick already in progress")
	ErrInvalidComputation  = errors.New("price computation produced an invalid value")
	ErrMissingFundamentals = errors.New("company fundamentals missing")
	ErrBadInstrument       = errors.New("instrument has invalid configuration")
	ErrStockNotFound       = errors.New("stock not found")
	ErrCryptoNotFound      = errors.New("cryptocurrency not found")
	ErrPlayerNotFound      = errors.New("player not found")
)

// Params are the tunable coefficients of the simulation. Reversion strength
// and trend weight are deliberately configuration, not constants.
type Params struct {
	TickEvery        time.Duration
	StockVolatility  float64 // annualized default when a stock carries none
	CryptoVolatility float64 // annualized default for coins
	MeanReversion    float64 // fraction pulled toward the fundamental per tick
	TrendWeight      float64 // trend bias weight relative to tick volatility
	TrendPeriod      time.Duration
	HistoryRetention time.Duration
	MaxParallel      int // per-instrument worker pool size within a stage
	BotSmoothing     float64
}

func DefaultParams() Params {
	return Params{
		TickEvery:        5 * time.Minute,
		StockVolatility:  0.45,
		CryptoVolatility: 1.20,
		MeanReversion:    0.06,
		TrendWeight:      0.30,
		TrendPeriod:      36 * time.Hour,
		HistoryRetention: 30 * 24 * time.Hour,
		MaxParallel:      8,
		BotSmoothing:     0.02,
	}
}

// TicksPerYear derives the annualization divisor from the tick cadence.
// 5-minute ticks give 105_120 ticks per year.
func (p Params) TicksPerYear() float64 {
	if p.TickEvery <= 0 {
		return 0
	}
	return (365 * 24 * time.Hour).Seconds() / p.TickEvery.Seconds()
}

func CoinToMicros(v float64) int64 {
	return int64(math.Round(v * float64(MicrosPerCoin)))
}

func MicrosToCoin(v int64) float64 {
	return float64(v) / float64(MicrosPerCoin)
}

func UnitsToShares(v int64) float64 {
	return float64(v) / float64(ShareScale)
}

// marketCapMicros derives a stock's capitalization from its price. Never
// stored independently of the price that produced it.
func marketCapMicros(priceMicros, totalShares int64) int64 {
	v := new(big.Int).Mul(big.NewInt(priceMicros), big.NewInt(totalShares))
	if !v.IsInt64() {
		return math.MaxInt64
	}
	return v.Int64()
}

// holdingValueMicros prices a holding quantity at the given instrument price.
func holdingValueMicros(priceMicros, qtyUnits int64) (int64, error) {
	v := new(big.Int).Mul(big.NewInt(priceMicros), big.NewInt(qtyUnits))
	v = v.Div(v, big.NewInt(ShareScale))
	if !v.IsInt64() {
		return 0, fmt.Errorf("holding value overflow")
	}
	return v.Int64(), nil
}

// clampPriceMicros converts a candidate price into a storable one. NaN,
// infinities and non-positive values are rejected, never written.
func clampPriceMicros(candidate float64) (int64, error) {
	if math.IsNaN(candidate) || math.IsInf(candidate, 0) {
		return 0, ErrInvalidComputation
	}
	if candidate <= 0 {
		return 0, ErrInvalidComputation
	}
	next := int64(math.Round(candidate))
	if next < MinPriceMicros {
		next = MinPriceMicros
	}
	if next > MaxPriceMicros {
		next = MaxPriceMicros
	}
	return next, nil
}
