package market

import (
	"math"
	"testing"
)

func TestMarketCapMicros(t *testing.T) {
	if got := marketCapMicros(1234, 100); got != 123_400 {
		t.Fatalf("got %d want 123400", got)
	}
	if got := marketCapMicros(130*MicrosPerCoin, 42_000); got != 130*MicrosPerCoin*42_000 {
		t.Fatalf("got %d want %d", got, 130*MicrosPerCoin*42_000)
	}
	if got := marketCapMicros(MaxPriceMicros, math.MaxInt64); got != math.MaxInt64 {
		t.Fatalf("overflow should saturate, got %d", got)
	}
}

func TestHoldingValueMicros(t *testing.T) {
	price := int64(150 * MicrosPerCoin)
	qty := int64(25 * ShareScale / 10) // 2.5 shares
	got, err := holdingValueMicros(price, qty)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := int64(375 * MicrosPerCoin); got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestCoinMicrosRoundTrip(t *testing.T) {
	if got := CoinToMicros(2.5); got != 2_500_000 {
		t.Fatalf("got %d want 2500000", got)
	}
	if got := MicrosToCoin(2_500_000); got != 2.5 {
		t.Fatalf("got %v want 2.5", got)
	}
	if got := UnitsToShares(25_000); got != 2.5 {
		t.Fatalf("got %v want 2.5", got)
	}
}
