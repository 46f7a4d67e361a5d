package market

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

type botRow struct {
	id           int64
	name         string
	style        string
	budgetMicros int64
}

type productRow struct {
	id          int64
	companyID   int64
	priceMicros int64
}

type botPurchase struct {
	product  productRow
	quantity int64
	notional int64
}

// spendFraction maps a bot's style to how much of its per-tick budget it is
// willing to spend, and how many product lines it spreads across.
func spendFraction(style string, draw func() float64) (float64, int) {
	u := (draw() + 1) / 2 // [0, 1]
	switch style {
	case "aggressive":
		return 0.60 + 0.40*u, 3
	case "frugal":
		return 0.10 + 0.25*u, 1
	default: // steady
		return 0.35 + 0.35*u, 2
	}
}

// planBotSpend decides which products a bot buys this tick. Pure: all
// randomness comes through draw. Total notional never exceeds the budget.
func planBotSpend(budgetMicros int64, style string, products []productRow, draw func() float64) []botPurchase {
	if budgetMicros <= 0 || len(products) == 0 {
		return nil
	}
	frac, lines := spendFraction(style, draw)
	remaining := int64(float64(budgetMicros) * frac)

	var out []botPurchase
	for i := 0; i < lines && remaining > 0; i++ {
		pick := int(float64(len(products)) * (draw() + 1) / 2)
		if pick >= len(products) {
			pick = len(products) - 1
		}
		p := products[pick]
		if p.priceMicros <= 0 || p.priceMicros > remaining {
			continue
		}
		maxQty := remaining / p.priceMicros
		qty := 1 + int64(float64(maxQty-1)*(draw()+1)/2)
		if qty < 1 {
			qty = 1
		}
		if qty > maxQty {
			qty = maxQty
		}
		notional := qty * p.priceMicros
		remaining -= notional
		out = append(out, botPurchase{product: p, quantity: qty, notional: notional})
	}
	return out
}

// runBotPurchases executes one tick of synthetic marketplace activity. Each
// bot is independent; a failing bot is counted and skipped so one bad actor
// never aborts the tick. Runs before pricing so the same tick's sales reach
// the fundamental valuation.
func (s *Service) runBotPurchases(ctx context.Context, tickNumber int64) (purchases, failures int64) {
	bots, products, err := s.loadBotUniverse(ctx)
	if err != nil {
		s.log.Error("load bot universe failed", "err", err)
		return 0, 1
	}
	if len(bots) == 0 || len(products) == 0 {
		return 0, 0
	}

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.MaxParallel)
	for _, b := range bots {
		b := b
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			n, err := s.applyBotTick(gctx, b, products, tickNumber)
			if err != nil {
				bad.Add(1)
				s.log.Warn("bot tick skipped", "bot", b.name, "err", err)
				return nil
			}
			ok.Add(n)
			return nil
		})
	}
	_ = g.Wait()
	return ok.Load(), bad.Load()
}

func (s *Service) loadBotUniverse(ctx context.Context) ([]botRow, []productRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, style, budget_micros_per_tick
		FROM market.bot_traders
		ORDER BY id
	`)
	if err != nil {
		return nil, nil, err
	}
	var bots []botRow
	for rows.Next() {
		var b botRow
		if err := rows.Scan(&b.id, &b.name, &b.style, &b.budgetMicros); err != nil {
			rows.Close()
			return nil, nil, err
		}
		bots = append(bots, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pRows, err := s.db.Query(ctx, `
		SELECT id, company_id, price_micros
		FROM market.products
		ORDER BY id
	`)
	if err != nil {
		return nil, nil, err
	}
	var products []productRow
	for pRows.Next() {
		var p productRow
		if err := pRows.Scan(&p.id, &p.companyID, &p.priceMicros); err != nil {
			pRows.Close()
			return nil, nil, err
		}
		products = append(products, p)
	}
	pRows.Close()
	if err := pRows.Err(); err != nil {
		return nil, nil, err
	}
	return bots, products, nil
}

// applyBotTick commits one bot's purchases in a single transaction. Each
// purchase credits the company's cash and folds into its smoothed annual
// revenue run-rate.
func (s *Service) applyBotTick(ctx context.Context, b botRow, products []productRow, tickNumber int64) (int64, error) {
	plan := planBotSpend(b.budgetMicros, b.style, products, s.draw)
	if len(plan) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	alpha := s.params.BotSmoothing
	ticksPerYear := s.params.TicksPerYear()
	groupID := uuid.NewString()

	for _, buy := range plan {
		if _, err := tx.Exec(ctx, `
			INSERT INTO market.bot_trades
			    (trade_group_id, bot_id, product_id, company_id, quantity, notional_micros, tick_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, groupID, b.id, buy.product.id, buy.product.companyID, buy.quantity, buy.notional, tickNumber); err != nil {
			return 0, err
		}
		annualized := float64(buy.notional) * ticksPerYear
		if _, err := tx.Exec(ctx, `
			UPDATE market.companies
			SET cash_micros = cash_micros + $1,
			    revenue_annual_micros = GREATEST(0, ROUND((1 - $2::float8) * revenue_annual_micros + $2::float8 * $3::float8))::bigint,
			    updated_at = now()
			WHERE id = $4
		`, buy.notional, alpha, annualized, buy.product.companyID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int64(len(plan)), nil
}
