package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// recordSnapshotTx appends one price history row inside the instrument's own
// transaction, so a price write and its snapshot commit together. Called
// exactly once per successfully updated instrument per tick; skipped
// instruments leave no row.
func recordSnapshotTx(ctx context.Context, tx pgx.Tx, kind string, instrumentID int64, at time.Time, priceMicros int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO market.price_history (instrument_kind, instrument_id, tick_at, price_micros)
		VALUES ($1, $2, $3, $4)
	`, kind, instrumentID, at, priceMicros)
	return err
}

// pruneHistory drops rows older than the retention horizon. Best-effort: a
// pruning failure is logged and never blocks tick completion.
func (s *Service) pruneHistory(ctx context.Context) {
	if s.params.HistoryRetention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-s.params.HistoryRetention)
	cmd, err := s.db.Exec(ctx, `
		DELETE FROM market.price_history
		WHERE tick_at < $1
	`, cutoff)
	if err != nil {
		s.log.Warn("history prune failed", "err", err)
		return
	}
	if n := cmd.RowsAffected(); n > 0 {
		s.log.Info("history pruned", "rows", n, "cutoff", cutoff)
	}
}

// History returns an instrument's price series, ascending by timestamp,
// bounded by the caller's window.
func (s *Service) History(ctx context.Context, q HistoryQuery) ([]PricePoint, error) {
	id, err := s.instrumentID(ctx, q.Kind, q.Symbol)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT tick_at, price_micros
		FROM market.price_history
		WHERE instrument_kind = $1 AND instrument_id = $2
	`
	args := []any{q.Kind, id}
	if !q.From.IsZero() {
		args = append(args, q.From)
		query += fmt.Sprintf(" AND tick_at >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		query += fmt.Sprintf(" AND tick_at <= $%d", len(args))
	}
	query += " ORDER BY tick_at ASC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.TickAt, &p.PriceMicros); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// recentHistory returns the newest n points, still ascending for charting.
func (s *Service) recentHistory(ctx context.Context, kind, symbol string, n int) ([]PricePoint, error) {
	id, err := s.instrumentID(ctx, kind, symbol)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT tick_at, price_micros
		FROM market.price_history
		WHERE instrument_kind = $1 AND instrument_id = $2
		ORDER BY tick_at DESC
		LIMIT $3
	`, kind, id, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.TickAt, &p.PriceMicros); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Service) instrumentID(ctx context.Context, kind, symbol string) (int64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var id int64
	switch kind {
	case KindStock:
		err := s.db.QueryRow(ctx, `SELECT id FROM market.stocks WHERE symbol = $1`, symbol).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrStockNotFound
		}
		return id, err
	case KindCrypto:
		err := s.db.QueryRow(ctx, `SELECT id FROM market.cryptos WHERE symbol = $1`, symbol).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCryptoNotFound
		}
		return id, err
	default:
		return 0, fmt.Errorf("unknown instrument kind %q", kind)
	}
}
