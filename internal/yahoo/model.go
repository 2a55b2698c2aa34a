package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// Only the metadata block is decoded; it carries the latest trade price and the
// previous session's close.
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart envelope.
type Chart struct {
	Result []Result `json:"result"`
	Error  *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Result is one symbol's chart result.
type Result struct {
	Meta Meta `json:"meta"`
}

// Meta holds symbol metadata and the latest market prices.
type Meta struct {
	Currency           string  `json:"currency"`
	Symbol             string  `json:"symbol"`
	ExchangeName       string  `json:"exchangeName"`
	LongName           string  `json:"longName"`
	ShortName          string  `json:"shortName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	PreviousClose      float64 `json:"previousClose"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

// Quote is the parsed latest price of a symbol.
type Quote struct {
	Symbol        string
	Currency      string
	Price         float64
	PreviousClose float64
	MarketTime    time.Time
}
