package market

import (
	"errors"
	"math"
	mathrand "math/rand"
	"testing"
	"time"
)

func zeroDraw() float64 { return 0 }

func TestTicksPerYear(t *testing.T) {
	p := Params{TickEvery: 5 * time.Minute}
	if got := p.TicksPerYear(); got != 105_120 {
		t.Fatalf("ticks per year = %v, want 105120", got)
	}
	if got := (Params{}).TicksPerYear(); got != 0 {
		t.Fatalf("zero interval should give 0, got %v", got)
	}
}

func TestTickVolatility(t *testing.T) {
	want := 0.45 / math.Sqrt(105_120)
	if got := tickVolatility(0.45, 105_120); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
	if got := tickVolatility(0, 105_120); got != 0 {
		t.Fatalf("zero volatility should give 0, got %v", got)
	}
	if got := tickVolatility(0.45, 0); got != 0 {
		t.Fatalf("zero ticks should give 0, got %v", got)
	}
}

func TestFundamentalPriceMicros(t *testing.T) {
	tests := []struct {
		name     string
		revenue  int64
		multiple float64
		shares   int64
		want     int64
	}{
		{"normal", 1_300_000 * MicrosPerCoin, 4.2, 42_000, int64(math.Round(1_300_000 * float64(MicrosPerCoin) * 4.2 / 42_000))},
		{"zero revenue floors", 0, 4.2, 42_000, fundamentalFloorMicros},
		{"zero shares", 1_000 * MicrosPerCoin, 4.2, 0, 0},
		{"negative shares", 1_000 * MicrosPerCoin, 4.2, -5, 0},
		{"nan multiple", 1_000 * MicrosPerCoin, math.NaN(), 100, 0},
		{"inf multiple", 1_000 * MicrosPerCoin, math.Inf(1), 100, 0},
		{"zero multiple", 1_000 * MicrosPerCoin, 0, 100, 0},
	}
	for _, tc := range tests {
		if got := fundamentalPriceMicros(tc.revenue, tc.multiple, tc.shares); got != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestTrendSeedDeterministic(t *testing.T) {
	if trendSeed("COBOLT") != trendSeed("COBOLT") {
		t.Fatalf("seed not stable for same symbol")
	}
	if trendSeed("COBOLT") == trendSeed("NIMBUS") {
		t.Fatalf("distinct symbols collided")
	}
}

func TestTrendBiasBounded(t *testing.T) {
	tickVol := tickVolatility(0.45, 105_120)
	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 500; i++ {
		bias := trendBias("SWIFTR", now.Add(time.Duration(i)*5*time.Minute), tickVol, 0.30, 36*time.Hour)
		if math.Abs(bias) > tickVol*0.30+1e-12 {
			t.Fatalf("bias %v exceeds weight bound %v", bias, tickVol*0.30)
		}
	}
	if got := trendBias("SWIFTR", now, 0, 0.30, 36*time.Hour); got != 0 {
		t.Fatalf("zero tick volatility should give zero bias, got %v", got)
	}
}

func TestStepStockPriceTowardFundamental(t *testing.T) {
	// Price 1000, fundamental 1200, volatility disabled: one tick must move
	// the price strictly toward the anchor without crossing it, and the
	// market cap must be re-derived from the new price.
	next, err := stepStockPrice(1000, 1200, 0, 0, 0.06, zeroDraw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next <= 1000 || next >= 1200 {
		t.Fatalf("price %d not strictly between 1000 and 1200", next)
	}
	if got := marketCapMicros(next, 100); got != next*100 {
		t.Fatalf("market cap %d != price*shares %d", got, next*100)
	}
}

func TestMeanReversionMonotone(t *testing.T) {
	const anchor = int64(1200)
	price := int64(5000)
	dist := price - anchor
	for i := 0; i < 50; i++ {
		next, err := stepStockPrice(price, anchor, 0, 0, 0.06, zeroDraw)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		nextDist := next - anchor
		if nextDist < 0 {
			t.Fatalf("step %d: price %d overshot anchor %d", i, next, anchor)
		}
		if nextDist >= dist {
			t.Fatalf("step %d: distance %d did not shrink from %d", i, nextDist, dist)
		}
		price, dist = next, nextDist
	}
}

func TestStepStockPriceExtremeInputs(t *testing.T) {
	rng := mathrand.New(mathrand.NewSource(7))
	draw := func() float64 { return 2*rng.Float64() - 1 }

	cases := []struct {
		price  int64
		anchor int64
		vol    float64
	}{
		{1, MaxPriceMicros, 5.0},
		{MaxPriceMicros, 1, 5.0},
		{1000, fundamentalFloorMicros, 0.45},
		{MaxPriceMicros, MaxPriceMicros, 2.0},
	}
	for _, tc := range cases {
		tickVol := tickVolatility(tc.vol, 105_120)
		for i := 0; i < 200; i++ {
			next, err := stepStockPrice(tc.price, tc.anchor, tickVol, 0, 0.06, draw)
			if err != nil {
				t.Fatalf("price=%d anchor=%d: %v", tc.price, tc.anchor, err)
			}
			if next < MinPriceMicros || next > MaxPriceMicros {
				t.Fatalf("price %d escaped clamp bounds", next)
			}
		}
	}
}

func TestStepStockPriceRejectsInvalid(t *testing.T) {
	if _, err := stepStockPrice(0, 1200, 0, 0, 0.06, zeroDraw); !errors.Is(err, ErrInvalidComputation) {
		t.Fatalf("zero price should be invalid, got %v", err)
	}
	// A non-finite factor must surface as an error, never as a written price.
	if _, err := stepStockPrice(MaxPriceMicros, 0, math.Inf(1), 0, 0, func() float64 { return 1 }); !errors.Is(err, ErrInvalidComputation) {
		t.Fatalf("infinite volatility should be invalid, got %v", err)
	}
}

func TestStepCryptoLongRunStaysPositive(t *testing.T) {
	tickVol := tickVolatility(1.2, 105_120)
	start := time.Unix(1_700_000_000, 0)
	for seed := int64(0); seed < 25; seed++ {
		rng := mathrand.New(mathrand.NewSource(seed))
		draw := func() float64 { return 2*rng.Float64() - 1 }
		price := 500 * MicrosPerCoin
		for i := 0; i < 1000; i++ {
			now := start.Add(time.Duration(i) * 5 * time.Minute)
			bias := trendBias("DOGON", now, tickVol, 0.30, 36*time.Hour)
			next, err := stepCryptoPrice(price, tickVol, bias, draw)
			if err != nil {
				t.Fatalf("seed %d tick %d: %v", seed, i, err)
			}
			if next <= 0 || next > MaxPriceMicros {
				t.Fatalf("seed %d tick %d: price %d out of range", seed, i, next)
			}
			price = next
		}
	}
}

func TestClampPriceMicros(t *testing.T) {
	bad := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -42}
	for _, v := range bad {
		if _, err := clampPriceMicros(v); !errors.Is(err, ErrInvalidComputation) {
			t.Fatalf("expected invalid computation for %v, got %v", v, err)
		}
	}
	if got, err := clampPriceMicros(0.4); err != nil || got != MinPriceMicros {
		t.Fatalf("sub-micro price should floor to %d, got %d err %v", MinPriceMicros, got, err)
	}
	if got, err := clampPriceMicros(1e18); err != nil || got != MaxPriceMicros {
		t.Fatalf("huge price should cap at %d, got %d err %v", MaxPriceMicros, got, err)
	}
}
