package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"

	"github.com/shopspring/decimal"
)

// JSONFeed fetches a virtual account's ground-truth balance from its data
// URL: the response is JSON and the balance sits behind the account's key
// path.
type JSONFeed struct {
	http *http.Client
}

// NewJSONFeed creates a feed with a sane request timeout.
func NewJSONFeed() *JSONFeed {
	return &JSONFeed{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch retrieves the balance for the given account.
func (f *JSONFeed) Fetch(ctx context.Context, account entities.VirtualAccount) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, account.DataURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request for %s: %w", account.Name, err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch %s: %w", account.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%s returned status %d", account.DataURL, resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var data any
	if err := decoder.Decode(&data); err != nil {
		return decimal.Zero, fmt.Errorf("decode %s response: %w", account.Name, err)
	}

	value, err := walkKeyPath(data, account.BalanceKeyPath)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", account.Name, err)
	}
	return toDecimal(value)
}

func walkKeyPath(data any, path []string) (any, error) {
	current := data
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q: value is not an object", key)
		}
		current, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("key %q missing in response", key)
		}
	}
	return current, nil
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("balance value %v is not numeric", value)
	}
}

var _ interfaces.BalanceFeed = (*JSONFeed)(nil)
