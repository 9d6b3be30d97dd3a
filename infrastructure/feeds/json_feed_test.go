package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bank_automation/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWalksKeyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"portfolio":{"balance":1234.56}}}`))
	}))
	defer srv.Close()

	feed := NewJSONFeed()
	balance, err := feed.Fetch(context.Background(), entities.VirtualAccount{
		Name:           "Crypto",
		DataURL:        srv.URL,
		BalanceKeyPath: []string{"data", "portfolio", "balance"},
	})
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1234.56")), "got %s", balance)
}

func TestFetchStringBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":"0.00000001"}`))
	}))
	defer srv.Close()

	feed := NewJSONFeed()
	balance, err := feed.Fetch(context.Background(), entities.VirtualAccount{
		DataURL:        srv.URL,
		BalanceKeyPath: []string{"balance"},
	})
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("0.00000001")))
}

func TestFetchMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	feed := NewJSONFeed()
	_, err := feed.Fetch(context.Background(), entities.VirtualAccount{
		Name:           "Crypto",
		DataURL:        srv.URL,
		BalanceKeyPath: []string{"data", "balance"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"balance"`)
}

func TestFetchNonNumericBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":{"nested":true}}`))
	}))
	defer srv.Close()

	feed := NewJSONFeed()
	_, err := feed.Fetch(context.Background(), entities.VirtualAccount{
		DataURL:        srv.URL,
		BalanceKeyPath: []string{"balance"},
	})
	assert.Error(t, err)
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	feed := NewJSONFeed()
	_, err := feed.Fetch(context.Background(), entities.VirtualAccount{
		DataURL:        srv.URL,
		BalanceKeyPath: []string{"balance"},
	})
	assert.Error(t, err)
}
