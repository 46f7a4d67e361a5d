package market

import (
	mathrand "math/rand"
	"testing"
)

func testProducts() []productRow {
	return []productRow{
		{id: 1, companyID: 1, priceMicros: 3 * MicrosPerCoin},
		{id: 2, companyID: 1, priceMicros: 5 * MicrosPerCoin},
		{id: 3, companyID: 2, priceMicros: 2 * MicrosPerCoin},
		{id: 4, companyID: 3, priceMicros: 9 * MicrosPerCoin},
	}
}

func TestPlanBotSpendRespectsBudget(t *testing.T) {
	products := testProducts()
	for seed := int64(0); seed < 50; seed++ {
		rng := mathrand.New(mathrand.NewSource(seed))
		draw := func() float64 { return 2*rng.Float64() - 1 }
		for _, style := range []string{"steady", "aggressive", "frugal"} {
			budget := int64(900 * MicrosPerCoin)
			plan := planBotSpend(budget, style, products, draw)
			var total int64
			for _, buy := range plan {
				if buy.quantity < 1 {
					t.Fatalf("seed %d style %s: quantity %d < 1", seed, style, buy.quantity)
				}
				if buy.notional != buy.quantity*buy.product.priceMicros {
					t.Fatalf("seed %d style %s: notional %d inconsistent", seed, style, buy.notional)
				}
				total += buy.notional
			}
			if total > budget {
				t.Fatalf("seed %d style %s: spent %d over budget %d", seed, style, total, budget)
			}
		}
	}
}

func TestPlanBotSpendEmptyInputs(t *testing.T) {
	rng := mathrand.New(mathrand.NewSource(1))
	draw := func() float64 { return 2*rng.Float64() - 1 }
	if plan := planBotSpend(0, "steady", testProducts(), draw); plan != nil {
		t.Fatalf("zero budget should produce no purchases")
	}
	if plan := planBotSpend(100*MicrosPerCoin, "steady", nil, draw); plan != nil {
		t.Fatalf("no products should produce no purchases")
	}
}

func TestSpendFractionStyles(t *testing.T) {
	rng := mathrand.New(mathrand.NewSource(3))
	draw := func() float64 { return 2*rng.Float64() - 1 }
	bounds := map[string][2]float64{
		"aggressive": {0.60, 1.00},
		"frugal":     {0.10, 0.35},
		"steady":     {0.35, 0.70},
	}
	for style, b := range bounds {
		for i := 0; i < 100; i++ {
			frac, lines := spendFraction(style, draw)
			if frac < b[0] || frac > b[1] {
				t.Fatalf("%s: fraction %v outside [%v, %v]", style, frac, b[0], b[1])
			}
			if lines < 1 {
				t.Fatalf("%s: lines %d < 1", style, lines)
			}
		}
	}
}
