package market

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
)

// computeNetWorthMicros totals a player's wealth from cash and current
// holding values. Pure, order-independent.
func computeNetWorthMicros(cashMicros int64, holdings []HoldingView) int64 {
	total := cashMicros
	for _, h := range holdings {
		total += h.CurrentValueMicros
	}
	return total
}

// refreshNetWorth recomputes every wallet's derived net worth from the tick's
// committed prices. Read-side only: holdings themselves are never touched.
func (s *Service) refreshNetWorth(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players.wallets w
		SET net_worth_micros = w.cash_micros
		    + COALESCE((
		        SELECT SUM(h.quantity_units * st.price_micros / $1)
		        FROM players.holdings h
		        JOIN market.stocks st ON st.id = h.instrument_id
		        WHERE h.player_id = w.player_id AND h.instrument_kind = 'stock'
		    ), 0)
		    + COALESCE((
		        SELECT SUM(h.quantity_units * cr.price_micros / $1)
		        FROM players.holdings h
		        JOIN market.cryptos cr ON cr.id = h.instrument_id
		        WHERE h.player_id = w.player_id AND h.instrument_kind = 'crypto'
		    ), 0),
		    updated_at = now()
		WHERE TRUE
	`, ShareScale)
	return err
}

// NetWorth returns a player's cash, holdings marked to the latest committed
// prices, and the derived total.
func (s *Service) NetWorth(ctx context.Context, playerID string) (NetWorthView, error) {
	var out NetWorthView
	out.PlayerID = playerID

	err := s.db.QueryRow(ctx, `
		SELECT username, cash_micros
		FROM players.wallets
		WHERE player_id = $1
	`, playerID).Scan(&out.Username, &out.CashMicros)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrPlayerNotFound
	}
	if err != nil {
		return out, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT h.instrument_kind,
		       COALESCE(st.symbol, cr.symbol),
		       h.quantity_units, h.total_invested_micros,
		       COALESCE(st.price_micros, cr.price_micros)
		FROM players.holdings h
		LEFT JOIN market.stocks st ON h.instrument_kind = 'stock' AND st.id = h.instrument_id
		LEFT JOIN market.cryptos cr ON h.instrument_kind = 'crypto' AND cr.id = h.instrument_id
		WHERE h.player_id = $1
		ORDER BY h.instrument_kind, 2
	`, playerID)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var h HoldingView
		var price int64
		if err := rows.Scan(&h.Kind, &h.Symbol, &h.QuantityUnits, &h.TotalInvestedMicros, &price); err != nil {
			return out, err
		}
		value, err := holdingValueMicros(price, h.QuantityUnits)
		if err != nil {
			return out, err
		}
		h.CurrentValueMicros = value
		h.ProfitLossMicros = value - h.TotalInvestedMicros
		out.Holdings = append(out.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	out.NetWorthMicros = computeNetWorthMicros(out.CashMicros, out.Holdings)
	return out, nil
}

// Leaderboard ranks players by the net worth refreshed at the last tick.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.Query(ctx, `
		SELECT username, net_worth_micros
		FROM players.wallets
		ORDER BY net_worth_micros DESC, username
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	var rank int64 = 1
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Username, &r.NetWorthMicros); err != nil {
			return nil, err
		}
		r.Rank = rank
		rank++
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListStocks returns all equities with their derived market caps.
func (s *Service) ListStocks(ctx context.Context) ([]StockView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, display_name, price_micros, previous_price_micros,
		       total_shares, market_cap_micros, COALESCE(volatility, $1)
		FROM market.stocks
		ORDER BY symbol
	`, s.params.StockVolatility)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockView
	for rows.Next() {
		var v StockView
		if err := rows.Scan(&v.Symbol, &v.DisplayName, &v.PriceMicros, &v.PreviousPriceMicros,
			&v.TotalShares, &v.MarketCapMicros, &v.Volatility); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) ListCryptos(ctx context.Context) ([]CryptoView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, display_name, price_micros, previous_price_micros, COALESCE(volatility, $1)
		FROM market.cryptos
		ORDER BY symbol
	`, s.params.CryptoVolatility)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CryptoView
	for rows.Next() {
		var v CryptoView
		if err := rows.Scan(&v.Symbol, &v.DisplayName, &v.PriceMicros, &v.PreviousPriceMicros, &v.Volatility); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// StockDetail returns one stock with its company fundamentals and a recent
// slice of its price series.
func (s *Service) StockDetail(ctx context.Context, symbol string, seriesLimit int) (StockDetail, error) {
	var out StockDetail
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	err := s.db.QueryRow(ctx, `
		SELECT st.symbol, st.display_name, st.price_micros, st.previous_price_micros,
		       st.total_shares, st.market_cap_micros, COALESCE(st.volatility, $1),
		       COALESCE(c.name, ''), COALESCE(c.revenue_annual_micros, 0)
		FROM market.stocks st
		LEFT JOIN market.companies c ON c.id = st.company_id
		WHERE st.symbol = $2
	`, s.params.StockVolatility, symbol).Scan(
		&out.Symbol, &out.DisplayName, &out.PriceMicros, &out.PreviousPriceMicros,
		&out.TotalShares, &out.MarketCapMicros, &out.Volatility,
		&out.CompanyName, &out.RevenueAnnualMicros)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrStockNotFound
	}
	if err != nil {
		return out, err
	}

	if seriesLimit > 0 {
		series, err := s.recentHistory(ctx, KindStock, symbol, seriesLimit)
		if err != nil {
			return out, err
		}
		out.Series = series
	}
	return out, nil
}
