package main

import (
	"fmt"

	"mkt/internal/market"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printWarn(msg string) {
	warn.Println(msg)
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printTickSummary(sum market.TickSummary) {
	accent.Printf("Tick #%d\n", sum.TickNumber)
	neutral.Printf("  started   %s\n", sum.StartedAt.Format("2006-01-02 15:04:05 MST"))
	neutral.Printf("  finished  %s\n", sum.FinishedAt.Format("2006-01-02 15:04:05 MST"))
	neutral.Printf("  bot purchases  %d\n", sum.BotPurchases)
	neutral.Printf("  stock updates  %d\n", sum.StockUpdates)
	neutral.Printf("  crypto updates %d\n", sum.CryptoUpdates)
	if sum.Failures > 0 {
		danger.Printf("  failures       %d\n", sum.Failures)
	} else {
		success.Println("  failures       0")
	}
}

func printStocks(stocks []market.StockView) {
	if len(stocks) == 0 {
		printWarn("No stocks listed.")
		return
	}
	accent.Printf("%-8s %-22s %14s %14s %18s\n", "SYMBOL", "NAME", "PRICE", "PREV", "MARKET CAP")
	for _, s := range stocks {
		line := fmt.Sprintf("%-8s %-22s %14.2f %14.2f %18.0f",
			s.Symbol, s.DisplayName,
			market.MicrosToCoin(s.PriceMicros),
			market.MicrosToCoin(s.PreviousPriceMicros),
			market.MicrosToCoin(s.MarketCapMicros))
		switch {
		case s.PriceMicros > s.PreviousPriceMicros:
			success.Println(line)
		case s.PriceMicros < s.PreviousPriceMicros:
			danger.Println(line)
		default:
			neutral.Println(line)
		}
	}
}

func printCryptos(coins []market.CryptoView) {
	if len(coins) == 0 {
		printWarn("No cryptocurrencies listed.")
		return
	}
	accent.Printf("%-8s %-18s %16s %16s\n", "SYMBOL", "NAME", "PRICE", "PREV")
	for _, c := range coins {
		line := fmt.Sprintf("%-8s %-18s %16.2f %16.2f",
			c.Symbol, c.DisplayName,
			market.MicrosToCoin(c.PriceMicros),
			market.MicrosToCoin(c.PreviousPriceMicros))
		switch {
		case c.PriceMicros > c.PreviousPriceMicros:
			success.Println(line)
		case c.PriceMicros < c.PreviousPriceMicros:
			danger.Println(line)
		default:
			neutral.Println(line)
		}
	}
}

func printStockDetail(d market.StockDetail) {
	accent.Printf("%s — %s\n", d.Symbol, d.DisplayName)
	neutral.Printf("  price       %.2f (prev %.2f)\n", market.MicrosToCoin(d.PriceMicros), market.MicrosToCoin(d.PreviousPriceMicros))
	neutral.Printf("  shares      %d\n", d.TotalShares)
	neutral.Printf("  market cap  %.0f\n", market.MicrosToCoin(d.MarketCapMicros))
	neutral.Printf("  volatility  %.2f\n", d.Volatility)
	if d.CompanyName != "" {
		neutral.Printf("  company     %s (annual revenue %.0f)\n", d.CompanyName, market.MicrosToCoin(d.RevenueAnnualMicros))
	}
	if len(d.Series) > 0 {
		accent.Println("  recent series:")
		for _, p := range d.Series {
			neutral.Printf("    %s  %.2f\n", p.TickAt.Format("01-02 15:04"), market.MicrosToCoin(p.PriceMicros))
		}
	}
}

func printHistory(symbol string, points []market.PricePoint) {
	if len(points) == 0 {
		printWarn("No history for " + symbol + ".")
		return
	}
	accent.Println(symbol)
	for _, p := range points {
		neutral.Printf("  %s  %.4f\n", p.TickAt.Format("2006-01-02 15:04"), market.MicrosToCoin(p.PriceMicros))
	}
}

func printNetWorth(v market.NetWorthView) {
	accent.Printf("%s (%s)\n", v.Username, v.PlayerID)
	neutral.Printf("  cash       %.2f\n", market.MicrosToCoin(v.CashMicros))
	for _, h := range v.Holdings {
		line := fmt.Sprintf("  %-6s %-8s %10.4f sh  value %14.2f  p/l %+14.2f",
			h.Kind, h.Symbol, market.UnitsToShares(h.QuantityUnits),
			market.MicrosToCoin(h.CurrentValueMicros),
			market.MicrosToCoin(h.ProfitLossMicros))
		if h.ProfitLossMicros >= 0 {
			success.Println(line)
		} else {
			danger.Println(line)
		}
	}
	accent.Printf("  net worth  %.2f\n", market.MicrosToCoin(v.NetWorthMicros))
}

func printLeaderboard(rows []market.LeaderboardRow) {
	if len(rows) == 0 {
		printWarn("No players yet.")
		return
	}
	accent.Printf("%4s  %-24s %18s\n", "RANK", "PLAYER", "NET WORTH")
	for _, r := range rows {
		neutral.Printf("%4d  %-24s %18.2f\n", r.Rank, r.Username, market.MicrosToCoin(r.NetWorthMicros))
	}
}
