package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bank_automation/domain/interfaces"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.binance.com"

// BinanceFeed resolves foreign-currency balances into EUR using the Binance
// ticker price. The exchange quotes EUR/<currency>, so the returned rate is
// the inverse: how many EUR one unit of the currency is worth.
type BinanceFeed struct {
	baseURL string
	http    *http.Client
}

// NewBinanceFeed creates a feed against the public Binance API.
func NewBinanceFeed() *BinanceFeed {
	return NewBinanceFeedWithURL(defaultBaseURL)
}

// NewBinanceFeedWithURL overrides the API base URL, used by tests.
func NewBinanceFeedWithURL(baseURL string) *BinanceFeed {
	return &BinanceFeed{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Rate returns the <currency>→EUR conversion rate.
func (f *BinanceFeed) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=EUR%s", f.baseURL, currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build ticker request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch EUR%s price: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d for EUR%s", resp.StatusCode, currency)
	}

	var ticker tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return decimal.Zero, fmt.Errorf("decode ticker response: %w", err)
	}

	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse ticker price %q: %w", ticker.Price, err)
	}
	if price.IsZero() {
		return decimal.Zero, fmt.Errorf("ticker price for EUR%s is zero", currency)
	}

	return decimal.NewFromInt(1).Div(price), nil
}

var _ interfaces.PriceFeed = (*BinanceFeed)(nil)
