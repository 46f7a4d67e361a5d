package market

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// resetStep is one typed wipe. The registry replaces any generic
// iterate-all-tables helper: each entity type gets its own named deletion,
// run in dependency order.
type resetStep struct {
	name string
	run  func(ctx context.Context, tx pgx.Tx) error
}

func deleteAll(table string) func(ctx context.Context, tx pgx.Tx) error {
	stmt := "DELETE FROM " + table
	return func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt)
		return err
	}
}

var resetRegistry = []resetStep{
	{"bot_trades", deleteAll("market.bot_trades")},
	{"bot_traders", deleteAll("market.bot_traders")},
	{"price_history", deleteAll("market.price_history")},
	{"holdings", deleteAll("players.holdings")},
	{"wallets", deleteAll("players.wallets")},
	{"products", deleteAll("market.products")},
	{"stocks", deleteAll("market.stocks")},
	{"cryptos", deleteAll("market.cryptos")},
	{"companies", deleteAll("market.companies")},
	{"tick_records", deleteAll("market.tick_records")},
}

// Reset destructively wipes all game state in one transaction. With
// tick_records emptied, the next RunTick starts numbering from 1 again.
func (s *Service) Reset(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, step := range resetRegistry {
		if err := step.run(ctx, tx); err != nil {
			return fmt.Errorf("reset %s: %w", step.name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.log.Warn("market state wiped")
	return nil
}
