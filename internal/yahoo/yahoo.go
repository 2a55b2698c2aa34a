package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the Yahoo Finance chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// FinanceClient provides methods for fetching quotes from Yahoo Finance.
// It wraps an HTTP client and knows how Taiwan listings are named on Yahoo.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFinanceClient creates a new Yahoo Finance client with default HTTP settings.
func NewFinanceClient() *FinanceClient {
	return NewFinanceClientWithBaseURL(DefaultBaseURL, &http.Client{Timeout: 10 * time.Second})
}

// NewFinanceClientWithBaseURL creates a client against a custom endpoint,
// used by tests to point at an httptest server.
func NewFinanceClientWithBaseURL(baseURL string, httpClient *http.Client) *FinanceClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &FinanceClient{httpClient: httpClient, baseURL: baseURL}
}

// Symbol returns the Yahoo ticker for a Taiwan code: CODE.TWO for OTC and
// emerging-board listings, CODE.TW otherwise.
func Symbol(code string, otc bool) string {
	if otc {
		return code + ".TWO"
	}
	return code + ".TW"
}

// QueryQuote fetches the intraday chart for symbol and returns its latest
// price. When the regular market price is missing the previous close is
// used.
//
// Returns:
//   - Quote: the latest price and the time it was traded
//   - error: if the request fails, Yahoo reports an error, or no price is present
func (c *FinanceClient) QueryQuote(ctx context.Context, symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/%s?interval=1m&range=1d", c.baseURL, url.PathEscape(symbol))
	result, err := c.queryYahoo(ctx, u)
	if err != nil {
		return Quote{}, err
	}
	if len(result.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	meta := result.Chart.Result[0].Meta
	previous := meta.PreviousClose
	if previous <= 0 {
		previous = meta.ChartPreviousClose
	}
	price := meta.RegularMarketPrice
	if price <= 0 {
		price = previous
	}
	if price <= 0 {
		return Quote{}, fmt.Errorf("no price returned for symbol %s", symbol)
	}

	q := Quote{
		Symbol:        meta.Symbol,
		Currency:      meta.Currency,
		Price:         price,
		PreviousClose: previous,
	}
	if meta.RegularMarketTime > 0 {
		q.MarketTime = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	return q, nil
}

// queryYahoo executes a request against Yahoo Finance, decodes the chart
// envelope, and surfaces API-level errors.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
func (c *FinanceClient) queryYahoo(ctx context.Context, u string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Response{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s", response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}
