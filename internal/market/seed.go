package market

import (
	"context"
)

// SeedDefaults installs the default game content when the market is empty:
// companies with fundamentals, their listed stocks, a handful of coins,
// marketplace products and the bot roster. Idempotent.
func (s *Service) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(1) FROM market.stocks`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	companies := []struct {
		Name       string
		Symbol     string
		Display    string
		Revenue    int64 // annual, coins
		MarginBps  int32
		Multiple   float64
		Shares     int64
		Price      int64 // coins
		Volatility float64
	}{
		{"Cobalt Dynamics", "COBOLT", "Cobalt Dynamics", 1_300_000, 1800, 4.2, 42_000, 130, 0.40},
		{"Nimbus Labs", "NIMBUS", "Nimbus Labs", 700_000, 2400, 5.0, 36_000, 95, 0.52},
		{"Rustic Systems", "RUSTIC", "Rustic Systems", 1_050_000, 1500, 3.6, 33_000, 115, 0.35},
		{"Pylon Networks", "PYLONS", "Pylon Networks", 560_000, 1200, 3.8, 27_000, 80, 0.45},
		{"Javolt Cloud", "JAVOLT", "Javolt Cloud", 900_000, 2000, 4.4, 38_000, 105, 0.48},
		{"Swiftr Mobile", "SWIFTR", "Swiftr Mobile", 1_400_000, 2600, 5.5, 51_000, 150, 0.60},
		{"Nodeon Runtime", "NODEON", "Nodeon Runtime", 1_000_000, 2100, 4.6, 38_000, 120, 0.50},
		{"Vectra AI", "VECTRA", "Vectra AI", 1_200_000, 3000, 7.0, 52_000, 165, 0.75},
		{"Zenith Retail", "ZENITH", "Zenith Retail", 820_000, 900, 2.8, 30_000, 75, 0.30},
		{"Lumina Health", "LUMINA", "Lumina Health", 760_000, 1700, 4.0, 29_000, 102, 0.38},
	}

	coins := []struct {
		Symbol     string
		Display    string
		Price      int64 // coins
		Volatility float64
	}{
		{"BITZ", "Bitzcoin", 43_000, 1.00},
		{"ETHOS", "Ethos", 2_400, 1.20},
		{"DOGON", "Dogon", 2, 2.20},
		{"SOLAR", "Solarium", 140, 1.60},
		{"MONAD", "Monad", 55, 1.40},
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range companies {
		var companyID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO market.companies (name, cash_micros, revenue_annual_micros, margin_bps, fundamental_multiple)
			VALUES ($1, 0, $2, $3, $4)
			RETURNING id
		`, c.Name, c.Revenue*MicrosPerCoin, c.MarginBps, c.Multiple).Scan(&companyID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO market.stocks
			    (company_id, symbol, display_name, price_micros, previous_price_micros,
			     total_shares, market_cap_micros, volatility)
			VALUES ($1, $2, $3, $4, $4, $5, $6, $7)
		`, companyID, c.Symbol, c.Display, c.Price*MicrosPerCoin, c.Shares,
			marketCapMicros(c.Price*MicrosPerCoin, c.Shares), c.Volatility); err != nil {
			return err
		}
		// Two products per company priced off its share price keeps bot
		// demand roughly proportional to company size.
		for i, name := range []string{c.Name + " Standard", c.Name + " Pro"} {
			price := c.Price * MicrosPerCoin / 50 * int64(i+1)
			if price <= 0 {
				price = MicrosPerCoin
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO market.products (company_id, name, price_micros)
				VALUES ($1, $2, $3)
			`, companyID, name, price); err != nil {
				return err
			}
		}
	}

	for _, c := range coins {
		if _, err := tx.Exec(ctx, `
			INSERT INTO market.cryptos (symbol, display_name, price_micros, previous_price_micros, volatility)
			VALUES ($1, $2, $3, $3, $4)
		`, c.Symbol, c.Display, c.Price*MicrosPerCoin, c.Volatility); err != nil {
			return err
		}
	}

	bots := []struct {
		Name   string
		Style  string
		Budget int64 // coins per tick
	}{
		{"Maya Fund", "steady", 900},
		{"Arun Capital", "aggressive", 2_400},
		{"Iris Holdings", "steady", 1_100},
		{"Noah Partners", "frugal", 400},
		{"Tara Ventures", "aggressive", 1_900},
		{"Kian Trust", "frugal", 550},
	}
	for _, b := range bots {
		if _, err := tx.Exec(ctx, `
			INSERT INTO market.bot_traders (name, style, budget_micros_per_tick)
			VALUES ($1, $2, $3)
		`, b.Name, b.Style, b.Budget*MicrosPerCoin); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
