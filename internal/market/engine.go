package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	mathrand "math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// tickLockKey is the advisory-lock namespace for the tick guard. Any process
// pointed at the same database contends on the same key.
const tickLockKey = int64(0x6d6b74_7469636b)

type Service struct {
	db     *pgxpool.Pool
	log    *slog.Logger
	params Params

	mu   sync.Mutex
	rand *mathrand.Rand

	ticking atomic.Bool
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, params Params) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if params.MaxParallel <= 0 {
		params.MaxParallel = DefaultParams().MaxParallel
	}
	return &Service{
		db:     db,
		log:    logger,
		params: params,
		rand:   mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) Params() Params {
	return s.params
}

// draw returns a uniform value in [-1, 1].
func (s *Service) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 2*s.rand.Float64() - 1
}

// tryBeginTick is the in-process fast path of the tick guard. The advisory
// lock below is what makes the guard hold across processes; this only spares
// a pool connection when the caller races itself.
func (s *Service) tryBeginTick() bool {
	return s.ticking.CompareAndSwap(false, true)
}

func (s *Service) endTick() {
	s.ticking.Store(false)
}

// RunTick advances the whole market by one tick: bot purchases, stock prices,
// crypto prices, derived aggregates, then the audit record. At most one tick
// runs at a time; a concurrent call fails fast with ErrTickInProgress.
// Per-instrument failures are logged, counted and skipped, never fatal.
func (s *Service) RunTick(ctx context.Context) (TickSummary, error) {
	var sum TickSummary
	if !s.tryBeginTick() {
		return sum, ErrTickInProgress
	}
	defer s.endTick()

	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return sum, fmt.Errorf("acquire tick guard connection: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, tickLockKey).Scan(&locked); err != nil {
		return sum, fmt.Errorf("acquire tick lock: %w", err)
	}
	if !locked {
		return sum, ErrTickInProgress
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, tickLockKey); err != nil {
			s.log.Error("release tick lock failed", "err", err)
		}
	}()

	var last int64
	if err := conn.QueryRow(ctx, `
		SELECT COALESCE(MAX(tick_number), 0)
		FROM market.tick_records
	`).Scan(&last); err != nil {
		return sum, fmt.Errorf("read tick watermark: %w", err)
	}

	sum.TickNumber = last + 1
	sum.StartedAt = time.Now().UTC()

	// Bots first: this tick's sales feed this tick's fundamental prices.
	sum.BotPurchases, sum.Failures = s.runBotPurchases(ctx, sum.TickNumber)

	var failed int64
	sum.StockUpdates, failed = s.updateStocks(ctx, sum.StartedAt)
	sum.Failures += failed
	sum.CryptoUpdates, failed = s.updateCryptos(ctx, sum.StartedAt)
	sum.Failures += failed

	if err := s.refreshNetWorth(ctx); err != nil {
		s.log.Error("net worth refresh failed", "tick", sum.TickNumber, "err", err)
		sum.Failures++
	}

	s.pruneHistory(ctx)

	sum.FinishedAt = time.Now().UTC()

	// The record is written even when the deadline expired mid-tick, so
	// partial ticks still show up in the audit trail with their counts.
	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := conn.Exec(finCtx, `
		INSERT INTO market.tick_records
		    (tick_number, started_at, finished_at, bot_purchases, stock_updates, crypto_updates, failures)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sum.TickNumber, sum.StartedAt, sum.FinishedAt, sum.BotPurchases, sum.StockUpdates, sum.CryptoUpdates, sum.Failures); err != nil {
		return sum, fmt.Errorf("persist tick record: %w", err)
	}

	s.log.Info("tick complete",
		"tick", sum.TickNumber,
		"bot_purchases", sum.BotPurchases,
		"stock_updates", sum.StockUpdates,
		"crypto_updates", sum.CryptoUpdates,
		"failures", sum.Failures,
		"took", sum.FinishedAt.Sub(sum.StartedAt).String(),
	)
	return sum, nil
}

type stockRow struct {
	id          int64
	symbol      string
	priceMicros int64
	totalShares int64
	volatility  float64
	companyID   int64
	revenue     int64
	multiple    float64
	hasCompany  bool
}

func (s *Service) updateStocks(ctx context.Context, now time.Time) (updated, failed int64) {
	rows, err := s.db.Query(ctx, `
		SELECT st.id, st.symbol, st.price_micros, st.total_shares,
		       COALESCE(st.volatility, $1),
		       COALESCE(c.id, 0), COALESCE(c.revenue_annual_micros, 0),
		       COALESCE(c.fundamental_multiple, 0), c.id IS NOT NULL
		FROM market.stocks st
		LEFT JOIN market.companies c ON c.id = st.company_id
	`, s.params.StockVolatility)
	if err != nil {
		s.log.Error("load stocks failed", "err", err)
		return 0, 1
	}
	var stocks []stockRow
	for rows.Next() {
		var r stockRow
		if err := rows.Scan(&r.id, &r.symbol, &r.priceMicros, &r.totalShares,
			&r.volatility, &r.companyID, &r.revenue, &r.multiple, &r.hasCompany); err != nil {
			rows.Close()
			s.log.Error("scan stock failed", "err", err)
			return 0, 1
		}
		stocks = append(stocks, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		s.log.Error("load stocks failed", "err", err)
		return 0, 1
	}

	ticksPerYear := s.params.TicksPerYear()

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.MaxParallel)
	for _, st := range stocks {
		st := st
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := s.updateOneStock(gctx, st, now, ticksPerYear); err != nil {
				bad.Add(1)
				s.log.Warn("stock update skipped", "symbol", st.symbol, "err", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return ok.Load(), bad.Load()
}

// updateOneStock performs one instrument's whole transition in a single
// transaction: previous price, new price, derived market cap, history row.
// All-or-nothing per instrument.
func (s *Service) updateOneStock(ctx context.Context, st stockRow, now time.Time, ticksPerYear float64) error {
	if st.totalShares <= 0 {
		return fmt.Errorf("%w: total shares %d", ErrBadInstrument, st.totalShares)
	}
	if st.volatility < 0 || math.IsNaN(st.volatility) || math.IsInf(st.volatility, 0) {
		return fmt.Errorf("%w: volatility %v", ErrBadInstrument, st.volatility)
	}

	anchor := int64(0)
	if st.hasCompany {
		anchor = fundamentalPriceMicros(st.revenue, st.multiple, st.totalShares)
	}
	if anchor == 0 {
		// MissingFundamentals: anchor at the current price, not fatal.
		anchor = st.priceMicros
	}

	tickVol := tickVolatility(st.volatility, ticksPerYear)
	bias := trendBias(st.symbol, now, tickVol, s.params.TrendWeight, s.params.TrendPeriod)
	next, err := stepStockPrice(st.priceMicros, anchor, tickVol, bias, s.params.MeanReversion, s.draw)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE market.stocks
		SET previous_price_micros = price_micros,
		    price_micros = $1,
		    market_cap_micros = $2,
		    updated_at = now()
		WHERE id = $3
	`, next, marketCapMicros(next, st.totalShares), st.id); err != nil {
		return err
	}
	if err := recordSnapshotTx(ctx, tx, KindStock, st.id, now, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type cryptoRow struct {
	id          int64
	symbol      string
	priceMicros int64
	volatility  float64
}

func (s *Service) updateCryptos(ctx context.Context, now time.Time) (updated, failed int64) {
	rows, err := s.db.Query(ctx, `
		SELECT id, symbol, price_micros, COALESCE(volatility, $1)
		FROM market.cryptos
	`, s.params.CryptoVolatility)
	if err != nil {
		s.log.Error("load cryptos failed", "err", err)
		return 0, 1
	}
	var coins []cryptoRow
	for rows.Next() {
		var r cryptoRow
		if err := rows.Scan(&r.id, &r.symbol, &r.priceMicros, &r.volatility); err != nil {
			rows.Close()
			s.log.Error("scan crypto failed", "err", err)
			return 0, 1
		}
		coins = append(coins, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		s.log.Error("load cryptos failed", "err", err)
		return 0, 1
	}

	ticksPerYear := s.params.TicksPerYear()

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.MaxParallel)
	for _, c := range coins {
		c := c
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := s.updateOneCrypto(gctx, c, now, ticksPerYear); err != nil {
				bad.Add(1)
				s.log.Warn("crypto update skipped", "symbol", c.symbol, "err", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return ok.Load(), bad.Load()
}

func (s *Service) updateOneCrypto(ctx context.Context, c cryptoRow, now time.Time, ticksPerYear float64) error {
	if c.volatility < 0 || math.IsNaN(c.volatility) || math.IsInf(c.volatility, 0) {
		return fmt.Errorf("%w: volatility %v", ErrBadInstrument, c.volatility)
	}

	tickVol := tickVolatility(c.volatility, ticksPerYear)
	bias := trendBias(c.symbol, now, tickVol, s.params.TrendWeight, s.params.TrendPeriod)
	next, err := stepCryptoPrice(c.priceMicros, tickVol, bias, s.draw)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE market.cryptos
		SET previous_price_micros = price_micros,
		    price_micros = $1,
		    updated_at = now()
		WHERE id = $2
	`, next, c.id); err != nil {
		return err
	}
	if err := recordSnapshotTx(ctx, tx, KindCrypto, c.id, now, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LastTick returns the most recent tick record, if any.
func (s *Service) LastTick(ctx context.Context) (TickSummary, bool, error) {
	var sum TickSummary
	err := s.db.QueryRow(ctx, `
		SELECT tick_number, started_at, finished_at, bot_purchases, stock_updates, crypto_updates, failures
		FROM market.tick_records
		ORDER BY tick_number DESC
		LIMIT 1
	`).Scan(&sum.TickNumber, &sum.StartedAt, &sum.FinishedAt,
		&sum.BotPurchases, &sum.StockUpdates, &sum.CryptoUpdates, &sum.Failures)
	if errors.Is(err, pgx.ErrNoRows) {
		return sum, false, nil
	}
	if err != nil {
		return sum, false, err
	}
	return sum, true, nil
}
