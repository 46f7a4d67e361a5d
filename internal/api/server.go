package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mkt/internal/config"
	"mkt/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	market *market.Service
	mux    *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, marketSvc *market.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		market: marketSvc,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/tick", s.handleTick)
		r.Get("/tick", s.handleLastTick)

		r.Get("/stocks", s.handleStocksList)
		r.Get("/stocks/{symbol}", s.handleStockDetail)
		r.Get("/stocks/{symbol}/history", s.handleHistory(market.KindStock))
		r.Get("/cryptos", s.handleCryptosList)
		r.Get("/cryptos/{symbol}/history", s.handleHistory(market.KindCrypto))

		r.Get("/players/{id}/networth", s.handleNetWorth)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Post("/admin/seed", s.handleSeed)
		r.Post("/admin/reset", s.handleReset)
	})
}

// handleTick is the external trigger: one tick per call, idempotent by
// rejection. A tick already in flight answers 409 without queueing.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sum, err := s.market.RunTick(r.Context())
	if err != nil {
		if errors.Is(err, market.ErrTickInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error("tick failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleLastTick(w http.ResponseWriter, r *http.Request) {
	sum, ok, err := s.market.LastTick(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no ticks recorded")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleStocksList(w http.ResponseWriter, r *http.Request) {
	out, err := s.market.ListStocks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stocks": out})
}

func (s *Server) handleCryptosList(w http.ResponseWriter, r *http.Request) {
	out, err := s.market.ListCryptos(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cryptos": out})
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	out, err := s.market.StockDetail(r.Context(), chi.URLParam(r, "symbol"), 64)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, market.ErrStockNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := market.HistoryQuery{
			Kind:   kind,
			Symbol: chi.URLParam(r, "symbol"),
		}
		var err error
		if q.From, err = parseTimeParam(r, "from"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if q.To, err = parseTimeParam(r, "to"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			q.Limit = n
		}

		points, err := s.market.History(r.Context(), q)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, market.ErrStockNotFound) || errors.Is(err, market.ErrCryptoNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"symbol": q.Symbol, "points": points})
	}
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	out, err := s.market.NetWorth(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, market.ErrPlayerNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 25
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be in 1..500")
			return
		}
		limit = n
	}
	rows, err := s.market.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// handleSeed loads the default game content. Idempotent: a market that
// already has stocks is left untouched.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if err := s.market.SeedDefaults(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "yes" {
		writeError(w, http.StatusBadRequest, "pass confirm=yes to wipe all market state")
		return
	}
	if err := s.market.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.cfg.StartupSeed {
		if err := s.market.SeedDefaults(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("reseed after reset: %v", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func parseTimeParam(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339, got %q", key, v)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
