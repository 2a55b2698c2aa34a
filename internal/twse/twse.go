// Package twse queries the Taiwan Stock Exchange's public quote services:
// the MIS realtime snapshot and the OpenAPI daily close table.
package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

const (
	// DefaultMISURL is the MIS realtime snapshot endpoint.
	DefaultMISURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"
	// DefaultOpenAPIURL is the daily trading table for all listed codes.
	DefaultOpenAPIURL = "https://openapi.twse.com.tw/v1/exchangeReport/STOCK_DAY_ALL"
)

// Client queries TWSE endpoints.
type Client struct {
	httpClient *http.Client
	misURL     string
	openAPIURL string
}

// NewClient creates a client against the public TWSE endpoints.
func NewClient() *Client {
	return NewClientWithURLs(DefaultMISURL, DefaultOpenAPIURL, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithURLs creates a client against custom endpoints.
func NewClientWithURLs(misURL, openAPIURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, misURL: misURL, openAPIURL: openAPIURL}
}

// IsOTC reports whether a market type names the OTC or emerging board.
func IsOTC(marketType string) bool {
	m := strings.ToLower(marketType)
	return strings.Contains(m, "上櫃") || strings.Contains(m, "興櫃") || strings.Contains(m, "otc")
}

// Channels returns the MIS channel names for a code. An unknown market
// type yields both the listed and OTC channels.
func Channels(code, marketType string) []string {
	c := code
	if len(c) < 4 {
		c = strings.Repeat("0", 4-len(c)) + c
	}
	if strings.TrimSpace(marketType) == "" {
		return []string{"tse_" + c + ".tw", "otc_" + c + ".tw"}
	}
	if IsOTC(marketType) {
		return []string{"otc_" + c + ".tw"}
	}
	return []string{"tse_" + c + ".tw"}
}

type misResponse struct {
	MsgArray []misItem `json:"msgArray"`
	RtCode   string    `json:"rtcode"`
	RtMsg    string    `json:"rtmessage"`
}

// misItem is one snapshot row: c is the code, z the last trade, tv the
// last trade volume, y the previous close.
type misItem struct {
	Code      string `json:"c"`
	Last      string `json:"z"`
	LastTrade string `json:"tv"`
	Yesterday string `json:"y"`
}

// RealtimePrices returns the latest trade price per requested code. Codes
// without a trade today fall back to the previous close. Missing codes
// are absent from the result.
func (c *Client) RealtimePrices(ctx context.Context, instruments []model.Instrument) (map[string]float64, error) {
	out := make(map[string]float64)
	if len(instruments) == 0 {
		return out, nil
	}

	var channels []string
	for _, in := range instruments {
		channels = append(channels, Channels(in.Code, in.MarketType)...)
	}

	u := fmt.Sprintf("%s?ex_ch=%s&json=1&delay=0", c.misURL, url.QueryEscape(strings.Join(channels, "|")))
	var resp misResponse
	if err := c.getJSON(ctx, u, map[string]string{"Referer": "https://mis.twse.com.tw/stock/index.jsp"}, &resp); err != nil {
		return nil, fmt.Errorf("failed to query TWSE MIS: %w", err)
	}

	for _, item := range resp.MsgArray {
		if item.Code == "" {
			continue
		}
		price, ok := firstPrice(item.Last, item.LastTrade, item.Yesterday)
		if !ok {
			continue
		}
		if code, found := matchCode(item.Code, instruments); found {
			out[code] = price
		}
	}
	return out, nil
}

type dayAllRow struct {
	Code         string `json:"Code"`
	Name         string `json:"Name"`
	ClosingPrice string `json:"ClosingPrice"`
}

// ClosePrices returns the latest daily close per requested code from the
// OpenAPI daily table. Codes not in the table are absent from the result.
func (c *Client) ClosePrices(ctx context.Context, codes []string) (map[string]float64, error) {
	out := make(map[string]float64)
	if len(codes) == 0 {
		return out, nil
	}

	var rows []dayAllRow
	if err := c.getJSON(ctx, c.openAPIURL, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to query TWSE OpenAPI: %w", err)
	}

	byCode := make(map[string]string, len(rows))
	for _, r := range rows {
		byCode[r.Code] = r.ClosingPrice
	}
	for _, code := range codes {
		raw, ok := byCode[code]
		if !ok {
			continue
		}
		if price, ok := parsePrice(raw); ok {
			out[code] = price
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// matchCode maps a code echoed by MIS back to the requested code, ignoring
// zero padding.
func matchCode(got string, instruments []model.Instrument) (string, bool) {
	trimmed := strings.TrimLeft(got, "0")
	for _, in := range instruments {
		if in.Code == got || strings.TrimLeft(in.Code, "0") == trimmed {
			return in.Code, true
		}
	}
	return "", false
}

func firstPrice(candidates ...string) (float64, bool) {
	for _, raw := range candidates {
		if p, ok := parsePrice(raw); ok {
			return p, true
		}
	}
	return 0, false
}

// parsePrice parses a TWSE price field. "-", blanks and non-positive values
// mean no price.
func parsePrice(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" || raw == "-" {
		return 0, false
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p <= 0 {
		return 0, false
	}
	return p, true
}
