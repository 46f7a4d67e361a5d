package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mkt/internal/market"
)

type APIConfig struct {
	Addr        string
	DatabaseURL string
	StartupSeed bool
	Market      market.Params
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("MKT_API_ADDR", ":8080")
	}

	def := market.DefaultParams()
	cfg := APIConfig{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StartupSeed: envBoolDefault("MKT_STARTUP_SEED", true),
		Market: market.Params{
			TickEvery:        envDurationDefault("MKT_TICK_EVERY", def.TickEvery),
			StockVolatility:  envFloatDefault("MKT_STOCK_VOLATILITY", def.StockVolatility),
			CryptoVolatility: envFloatDefault("MKT_CRYPTO_VOLATILITY", def.CryptoVolatility),
			MeanReversion:    envFloatDefault("MKT_MEAN_REVERSION", def.MeanReversion),
			TrendWeight:      envFloatDefault("MKT_TREND_WEIGHT", def.TrendWeight),
			TrendPeriod:      envDurationDefault("MKT_TREND_PERIOD", def.TrendPeriod),
			HistoryRetention: envDurationDefault("MKT_HISTORY_RETENTION", def.HistoryRetention),
			MaxParallel:      envIntDefault("MKT_MAX_PARALLEL", def.MaxParallel),
			BotSmoothing:     envFloatDefault("MKT_BOT_SMOOTHING", def.BotSmoothing),
		},
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Market.TickEvery <= 0 {
		return cfg, fmt.Errorf("MKT_TICK_EVERY must be positive")
	}
	if cfg.Market.MeanReversion < 0 || cfg.Market.MeanReversion > 1 {
		return cfg, fmt.Errorf("MKT_MEAN_REVERSION must be in [0, 1]")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("MKT_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
