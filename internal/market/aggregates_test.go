package market

import "testing"

func TestComputeNetWorthRoundTrip(t *testing.T) {
	cash := int64(25_000 * MicrosPerCoin)

	mustValue := func(price, qty int64) int64 {
		v, err := holdingValueMicros(price, qty)
		if err != nil {
			t.Fatalf("holding value: %v", err)
		}
		return v
	}
	holdings := []HoldingView{
		{Kind: KindStock, Symbol: "COBOLT", QuantityUnits: 3 * ShareScale, TotalInvestedMicros: 350 * MicrosPerCoin},
		{Kind: KindStock, Symbol: "SWIFTR", QuantityUnits: ShareScale / 2, TotalInvestedMicros: 80 * MicrosPerCoin},
		{Kind: KindCrypto, Symbol: "BITZ", QuantityUnits: ShareScale / 4, TotalInvestedMicros: 11_000 * MicrosPerCoin},
	}
	prices := []int64{130 * MicrosPerCoin, 150 * MicrosPerCoin, 43_000 * MicrosPerCoin}

	var want = cash
	for i := range holdings {
		holdings[i].CurrentValueMicros = mustValue(prices[i], holdings[i].QuantityUnits)
		holdings[i].ProfitLossMicros = holdings[i].CurrentValueMicros - holdings[i].TotalInvestedMicros
		want += holdings[i].CurrentValueMicros
	}

	if got := computeNetWorthMicros(cash, holdings); got != want {
		t.Fatalf("net worth %d want %d", got, want)
	}

	// Order independence.
	reversed := []HoldingView{holdings[2], holdings[0], holdings[1]}
	if got := computeNetWorthMicros(cash, reversed); got != want {
		t.Fatalf("net worth depends on holding order: %d want %d", got, want)
	}

	// P/L is current value minus cost basis.
	for _, h := range holdings {
		if h.ProfitLossMicros != h.CurrentValueMicros-h.TotalInvestedMicros {
			t.Fatalf("%s: profit/loss %d inconsistent", h.Symbol, h.ProfitLossMicros)
		}
	}
}
