package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mkt/internal/market"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Tick(ctx context.Context) (market.TickSummary, error) {
	var out market.TickSummary
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/tick", nil, &out)
	return out, err
}

func (c *Client) LastTick(ctx context.Context) (market.TickSummary, error) {
	var out market.TickSummary
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/tick", nil, &out)
	return out, err
}

func (c *Client) ListStocks(ctx context.Context) ([]market.StockView, error) {
	var out struct {
		Stocks []market.StockView `json:"stocks"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stocks", nil, &out)
	return out.Stocks, err
}

func (c *Client) ListCryptos(ctx context.Context) ([]market.CryptoView, error) {
	var out struct {
		Cryptos []market.CryptoView `json:"cryptos"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/cryptos", nil, &out)
	return out.Cryptos, err
}

func (c *Client) StockDetail(ctx context.Context, symbol string) (market.StockDetail, error) {
	var out market.StockDetail
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stocks/"+url.PathEscape(symbol), nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, kind, symbol string, limit int) ([]market.PricePoint, error) {
	base := "/v1/stocks/"
	if kind == market.KindCrypto {
		base = "/v1/cryptos/"
	}
	path := base + url.PathEscape(symbol) + "/history"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Points []market.PricePoint `json:"points"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Points, err
}

func (c *Client) NetWorth(ctx context.Context, playerID string) (market.NetWorthView, error) {
	var out market.NetWorthView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/players/"+url.PathEscape(playerID)+"/networth", nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]market.LeaderboardRow, error) {
	path := "/v1/leaderboard"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Rows []market.LeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Rows, err
}

func (c *Client) Seed(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/admin/seed", nil, nil)
}

func (c *Client) Reset(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/admin/reset?confirm=yes", nil, nil)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
