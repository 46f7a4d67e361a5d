package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cl "mkt/internal/cli"
	"mkt/internal/config"
	"mkt/internal/market"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "mkt",
		Short:        "Market simulation operations client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newTickCmd(&apiBase),
		newStocksCmd(&apiBase),
		newCryptosCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newNetWorthCmd(&apiBase),
		newLeaderboardCmd(&apiBase),
		newSeedCmd(&apiBase),
		newResetCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 60*time.Second)
}

func newTickCmd(apiBase *string) *cobra.Command {
	var last bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Trigger one market tick (or show the last one with --last)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)

			var (
				sum market.TickSummary
				err error
			)
			if last {
				sum, err = client.LastTick(ctx)
			} else {
				sum, err = client.Tick(ctx)
			}
			if err != nil {
				return err
			}
			printTickSummary(sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&last, "last", false, "show the last recorded tick instead of running one")
	return cmd
}

func newStocksCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks [symbol]",
		Short: "List stocks, or show one stock with its recent series",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)

			if len(args) == 1 {
				detail, err := client.StockDetail(ctx, strings.ToUpper(args[0]))
				if err != nil {
					return err
				}
				printStockDetail(detail)
				return nil
			}
			stocks, err := client.ListStocks(ctx)
			if err != nil {
				return err
			}
			printStocks(stocks)
			return nil
		},
	}
}

func newCryptosCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cryptos",
		Short: "List cryptocurrencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			coins, err := newClient(apiBase).ListCryptos(ctx)
			if err != nil {
				return err
			}
			printCryptos(coins)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	var kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Show an instrument's price series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != market.KindStock && kind != market.KindCrypto {
				return fmt.Errorf("kind must be %q or %q", market.KindStock, market.KindCrypto)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			points, err := newClient(apiBase).History(ctx, kind, strings.ToUpper(args[0]), limit)
			if err != nil {
				return err
			}
			printHistory(strings.ToUpper(args[0]), points)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", market.KindStock, "instrument kind: stock or crypto")
	cmd.Flags().IntVar(&limit, "limit", 32, "max points")
	return cmd
}

func newNetWorthCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "networth <player-id>",
		Short: "Show a player's cash, holdings and net worth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).NetWorth(ctx, args[0])
			if err != nil {
				return err
			}
			printNetWorth(out)
			return nil
		},
	}
}

func newLeaderboardCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the net-worth leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			rows, err := newClient(apiBase).Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			printLeaderboard(rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "number of rows")
	return cmd
}

func newSeedCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load default companies, instruments, products and bots (no-op if present)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			if err := newClient(apiBase).Seed(ctx); err != nil {
				return err
			}
			printSuccess("Default market content is in place.")
			return nil
		},
	}
}

func newResetCmd(apiBase *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all market state (destructive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			if err := newClient(apiBase).Reset(ctx); err != nil {
				return err
			}
			printWarn("Market state wiped. Tick numbering restarts at 1.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
