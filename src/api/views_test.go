package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradeledger/src/api"
	"tradeledger/src/config"
	"tradeledger/src/events"
	"tradeledger/src/pricing"
	"tradeledger/src/schemas"
	"tradeledger/src/testutil"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type client struct {
	t     *testing.T
	url   string
	token string
}

func newServer(t *testing.T, cfg *config.Config) *client {
	t.Helper()
	server, err := api.NewServer(cfg, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(server.Close)

	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)
	return &client{t: t, url: srv.URL}
}

func (c *client) do(method, path, body string, headers ...string) (*http.Response, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.url+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *client) decode(method, path, body string, status int, v interface{}, headers ...string) {
	c.t.Helper()
	resp, data := c.do(method, path, body, headers...)
	require.Equal(c.t, status, resp.StatusCode, string(data))
	if v != nil {
		require.NoError(c.t, json.Unmarshal(data, v))
	}
}

func (c *client) status(method, path, body string, headers ...string) int {
	c.t.Helper()
	resp, _ := c.do(method, path, body, headers...)
	return resp.StatusCode
}

func (c *client) openAccount(deposit string) schemas.AccountResponse {
	c.t.Helper()
	var account schemas.AccountResponse
	c.decode(http.MethodPost, "/api/accounts/", `{"owner":"alice","initial_deposit":"`+deposit+`"}`, http.StatusCreated, &account)
	return account
}

func TestAlive(t *testing.T) {
	c := newServer(t, testutil.Config(t))
	resp, body := c.do(http.MethodGet, "/alive", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Im alive!", string(body))
}

func TestAccountsAPI(t *testing.T) {
	c := newServer(t, testutil.Config(t))

	t.Run("should open accounts", func(t *testing.T) {
		account := c.openAccount("1000")
		assert.Equal(t, "alice", account.Owner)
		assert.True(t, account.CashBalance.Equal(decimal.NewFromInt(1000)))

		var fetched schemas.AccountResponse
		c.decode(http.MethodGet, "/api/accounts/"+account.ID, "", http.StatusOK, &fetched)
		assert.Equal(t, account.ID, fetched.ID)

		var accounts []schemas.AccountResponse
		c.decode(http.MethodGet, "/api/accounts/", "", http.StatusOK, &accounts)
		assert.Len(t, accounts, 1)
	})

	t.Run("should validate account requests", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodPost, "/api/accounts/", `{`))
		assert.Equal(t, http.StatusUnprocessableEntity, c.status(http.MethodPost, "/api/accounts/", `{"initial_deposit":"10"}`))
		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodPost, "/api/accounts/", `{"owner":"bob","initial_deposit":"-10"}`))
		assert.Equal(t, http.StatusNotFound, c.status(http.MethodGet, "/api/accounts/missing", ""))
	})
}

func TestTradingAPI(t *testing.T) {
	c := newServer(t, testutil.Config(t))
	account := c.openAccount("1000")
	base := "/api/accounts/" + account.ID

	t.Run("should deposit and withdraw", func(t *testing.T) {
		var tx schemas.TransactionResponse
		c.decode(http.MethodPost, base+"/deposits", `{"amount":"500"}`, http.StatusCreated, &tx)
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(1500)))

		c.decode(http.MethodPost, base+"/withdrawals", `{"amount":"200.25"}`, http.StatusCreated, &tx)
		assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("1299.75")))
		assert.Equal(t, "WITHDRAWAL", tx.Type)
	})

	t.Run("should buy and sell", func(t *testing.T) {
		var tx schemas.TransactionResponse
		c.decode(http.MethodPost, base+"/buys", `{"symbol":"aapl","quantity":"2"}`, http.StatusCreated, &tx)
		assert.Equal(t, "AAPL", tx.Symbol)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-300)))

		c.decode(http.MethodPost, base+"/sells", `{"symbol":"AAPL","quantity":"1"}`, http.StatusCreated, &tx)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(150)))
	})

	t.Run("should map ledger errors to status codes", func(t *testing.T) {
		assert.Equal(t, http.StatusPaymentRequired, c.status(http.MethodPost, base+"/withdrawals", `{"amount":"100000"}`))
		assert.Equal(t, http.StatusPaymentRequired, c.status(http.MethodPost, base+"/buys", `{"symbol":"NFLX","quantity":"100"}`))
		assert.Equal(t, http.StatusConflict, c.status(http.MethodPost, base+"/sells", `{"symbol":"AAPL","quantity":"5"}`))
		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodPost, base+"/buys", `{"symbol":"NOPE","quantity":"1"}`))
		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodPost, base+"/deposits", `{"amount":"0"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, c.status(http.MethodPost, base+"/deposits", `{}`))
		assert.Equal(t, http.StatusNotFound, c.status(http.MethodPost, "/api/accounts/missing/deposits", `{"amount":"1"}`))
	})

	t.Run("should refuse amounts with runaway exponents quickly", func(t *testing.T) {
		start := time.Now()
		resp, body := c.do(http.MethodPost, base+"/deposits", `{"amount":1e-10000000}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Less(t, len(body), 512)
		assert.Less(t, time.Since(start), 2*time.Second)

		resp, _ = c.do(http.MethodPost, base+"/buys", `{"symbol":"AAPL","quantity":1e10000000}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("should replay idempotent requests", func(t *testing.T) {
		var first, second schemas.TransactionResponse
		c.decode(http.MethodPost, base+"/deposits", `{"amount":"10"}`, http.StatusCreated, &first, "Idempotency-Key", "dep-1")
		c.decode(http.MethodPost, base+"/deposits", `{"amount":"10"}`, http.StatusOK, &second, "Idempotency-Key", "dep-1")
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Replayed)

		assert.Equal(t, http.StatusConflict, c.status(http.MethodPost, base+"/deposits", `{"amount":"11"}`, "Idempotency-Key", "dep-1"))
	})

	t.Run("should list transactions", func(t *testing.T) {
		var page schemas.TransactionPage
		c.decode(http.MethodGet, base+"/transactions", "", http.StatusOK, &page)
		assert.Equal(t, int64(6), page.Total)
		assert.Equal(t, 100, page.Limit)

		c.decode(http.MethodGet, base+"/transactions?type=buy", "", http.StatusOK, &page)
		assert.Equal(t, int64(1), page.Total)

		c.decode(http.MethodGet, base+"/transactions?limit=2&offset=1&order=desc", "", http.StatusOK, &page)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "SELL", page.Items[0].Type)

		today := time.Now().UTC().Format("2006-01-02")
		c.decode(http.MethodGet, base+"/transactions?startDate="+today+"&endDate="+today, "", http.StatusOK, &page)
		assert.Equal(t, int64(6), page.Total)

		var tx schemas.TransactionResponse
		c.decode(http.MethodGet, base+"/transactions/"+page.Items[0].ID, "", http.StatusOK, &tx)
		assert.Equal(t, int64(1), tx.Sequence)
	})

	t.Run("should reject bad transaction queries", func(t *testing.T) {
		for _, query := range []string{"limit=0", "limit=5000", "offset=-1", "order=up", "type=gift", "startDate=yesterday", "startDate=2024-02-01&endDate=2024-01-01"} {
			assert.Equal(t, http.StatusBadRequest, c.status(http.MethodGet, base+"/transactions?"+query, ""), query)
		}
		assert.Equal(t, http.StatusNotFound, c.status(http.MethodGet, base+"/transactions/missing", ""))
	})

	t.Run("should list trades of a symbol", func(t *testing.T) {
		var trades []schemas.TransactionResponse
		c.decode(http.MethodGet, base+"/trades/aapl", "", http.StatusOK, &trades)
		require.Len(t, trades, 2)
		assert.Equal(t, "BUY", trades[0].Type)
	})
}

func TestReportsAPI(t *testing.T) {
	c := newServer(t, testutil.Config(t))
	account := c.openAccount("1000")
	base := "/api/accounts/" + account.ID
	c.decode(http.MethodPost, base+"/buys", `{"symbol":"MSFT","quantity":"1"}`, http.StatusCreated, nil)

	t.Run("should summarize the portfolio", func(t *testing.T) {
		var summary schemas.PortfolioSummary
		c.decode(http.MethodGet, base+"/summary", "", http.StatusOK, &summary)
		assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(1000)))
		assert.True(t, summary.ProfitLoss.IsZero())

		var holdings []schemas.HoldingReport
		c.decode(http.MethodGet, base+"/holdings", "", http.StatusOK, &holdings)
		require.Len(t, holdings, 1)
		assert.Equal(t, "Microsoft Corp.", holdings[0].Name)
	})

	t.Run("should download statements", func(t *testing.T) {
		resp, body := c.do(http.MethodGet, base+"/statement", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
		f, err := excelize.OpenReader(bytes.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, []string{"Summary", "Holdings", "Transactions"}, f.GetSheetList())

		resp, body = c.do(http.MethodGet, base+"/statement?format=csv", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
		assert.True(t, strings.HasPrefix(string(body), "Sequence,Timestamp,Type"))

		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodGet, base+"/statement?format=pdf", ""))
		assert.Equal(t, http.StatusNotFound, c.status(http.MethodGet, "/api/accounts/missing/statement", ""))
	})

	t.Run("should serve performance", func(t *testing.T) {
		var points []schemas.PerformancePoint
		c.decode(http.MethodGet, base+"/performance?interval=1d", "", http.StatusOK, &points)
		assert.Empty(t, points)

		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodGet, base+"/performance?interval=often", ""))

		resp, body := c.do(http.MethodGet, base+"/performance/chart", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, string(body), "Portfolio performance")
	})
}

func TestPricesAPI(t *testing.T) {
	c := newServer(t, testutil.Config(t))

	t.Run("should list and fetch prices", func(t *testing.T) {
		var quotes []pricing.Quote
		c.decode(http.MethodGet, "/api/prices/", "", http.StatusOK, &quotes)
		assert.Len(t, quotes, len(pricing.DefaultQuotes()))

		var quote pricing.Quote
		c.decode(http.MethodGet, "/api/prices/tsla", "", http.StatusOK, &quote)
		assert.Equal(t, "TSLA", quote.Symbol)
		assert.Equal(t, http.StatusNotFound, c.status(http.MethodGet, "/api/prices/NOPE", ""))
	})

	t.Run("should change prices", func(t *testing.T) {
		var quote pricing.Quote
		c.decode(http.MethodPut, "/api/prices/AAPL", `{"price":"175.5"}`, http.StatusOK, &quote)
		assert.True(t, quote.Price.Equal(decimal.RequireFromString("175.5")))

		c.decode(http.MethodGet, "/api/prices/AAPL", "", http.StatusOK, &quote)
		assert.True(t, quote.Price.Equal(decimal.RequireFromString("175.5")))

		assert.Equal(t, http.StatusNotFound, c.status(http.MethodPut, "/api/prices/NOPE", `{"price":"1"}`))
		assert.Equal(t, http.StatusBadRequest, c.status(http.MethodPut, "/api/prices/AAPL", `{"price":"-1"}`))
	})

	t.Run("should list new symbols", func(t *testing.T) {
		var quote pricing.Quote
		c.decode(http.MethodPost, "/api/prices/", `{"symbol":"nvda","name":"NVIDIA Corp.","price":"900"}`, http.StatusCreated, &quote)
		assert.Equal(t, "NVDA", quote.Symbol)

		assert.Equal(t, http.StatusConflict, c.status(http.MethodPost, "/api/prices/", `{"symbol":"NVDA","price":"1"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, c.status(http.MethodPost, "/api/prices/", `{"symbol":"AMD"}`))
	})
}

func TestStreamAccount(t *testing.T) {
	c := newServer(t, testutil.Config(t))
	account := c.openAccount("1000")

	url := "ws" + strings.TrimPrefix(c.url, "http") + "/ws/accounts/" + account.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first struct {
		Type string                   `json:"type"`
		Data schemas.PortfolioSummary `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "summary", first.Type)
	assert.Equal(t, account.ID, first.Data.AccountID)

	c.decode(http.MethodPost, "/api/accounts/"+account.ID+"/deposits", `{"amount":"25"}`, http.StatusCreated, nil)

	var next struct {
		Type string                      `json:"type"`
		Data events.TransactionCompleted `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "transaction", next.Type)
	assert.Equal(t, int64(2), next.Data.Sequence)
	assert.True(t, next.Data.CashBalance.Equal(decimal.NewFromInt(1025)))

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(c.url, "http")+"/ws/accounts/missing", nil)
	assert.Error(t, err)
}

func TestAuthentication(t *testing.T) {
	t.Run("should hide the token endpoint when disabled", func(t *testing.T) {
		c := newServer(t, testutil.Config(t))
		assert.Equal(t, http.StatusNotFound, c.status(http.MethodPost, "/api/token", `{"client_id":"x","client_secret":"y"}`))
	})

	cfg := testutil.Config(t)
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Clients = map[string]string{"dashboard": "s3cr3t"}
	c := newServer(t, cfg)

	t.Run("should require a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, c.status(http.MethodGet, "/api/accounts/", ""))
		assert.Equal(t, http.StatusOK, c.status(http.MethodGet, "/alive", ""))
	})

	t.Run("should refuse bad credentials", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, c.status(http.MethodPost, "/api/token", `{"client_id":"dashboard","client_secret":"nope"}`))
		assert.Equal(t, http.StatusUnauthorized, c.status(http.MethodPost, "/api/token", `{"client_id":"other","client_secret":"s3cr3t"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, c.status(http.MethodPost, "/api/token", `{"client_id":"dashboard"}`))
	})

	t.Run("should accept issued tokens", func(t *testing.T) {
		var token schemas.TokenResponse
		c.decode(http.MethodPost, "/api/token", `{"client_id":"Dashboard","client_secret":"s3cr3t"}`, http.StatusOK, &token)
		assert.Equal(t, "Bearer", token.TokenType)
		assert.Equal(t, int64(3600), token.ExpiresIn)

		c.token = token.AccessToken
		assert.Equal(t, http.StatusOK, c.status(http.MethodGet, "/api/accounts/", ""))

		c.token = token.AccessToken + "x"
		assert.Equal(t, http.StatusUnauthorized, c.status(http.MethodGet, "/api/accounts/", ""))
	})
}
