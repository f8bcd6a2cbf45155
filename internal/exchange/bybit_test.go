package exchange

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"TradePilot/internal/model"
)

func TestFetchCandles_ReversesNewestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/kline" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// Bybit returns the newest bar first.
		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			["1700001800000","103","104","102","103.5","30"],
			["1700000900000","101","103","100","102","20"],
			["1700000000000","100","102","99","101","10"]
		]}}`)
	}))
	defer srv.Close()

	b := NewBybit("", "", srv.URL)
	bars, err := b.FetchCandles(context.Background(), "BTCUSDT", "15", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(bars))
	}
	if bars[0].Close != 101 || bars[2].Close != 103.5 {
		t.Errorf("expected chronological order, got closes %f..%f", bars[0].Close, bars[2].Close)
	}
	if !bars[0].Time.Before(bars[2].Time) {
		t.Error("expected timestamps to be ascending")
	}
	if bars[2].Volume != 30 {
		t.Errorf("expected latest volume 30, got %f", bars[2].Volume)
	}
}

func TestFetchEquity_Signed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{"X-BAPI-API-KEY", "X-BAPI-TIMESTAMP", "X-BAPI-RECV-WINDOW", "X-BAPI-SIGN"} {
			if r.Header.Get(h) == "" {
				t.Errorf("missing header %s", h)
			}
		}
		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[{"totalEquity":"10234.56"}]}}`)
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", srv.URL)
	equity, err := b.FetchEquity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if equity != 10234.56 {
		t.Errorf("expected equity 10234.56, got %f", equity)
	}
}

func TestFetchEquity_RequiresCredentials(t *testing.T) {
	b := NewBybit("", "", "http://127.0.0.1:1")
	if _, err := b.FetchEquity(context.Background()); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestFetchPosition_FlatReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[{"symbol":"BTCUSDT","side":"None","size":"0"}]}}`)
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", srv.URL)
	pos, err := b.FetchPosition(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos != nil {
		t.Errorf("expected nil position when flat, got %+v", pos)
	}
}

func TestSubmitMarketOrder_SendsBrackets(t *testing.T) {
	var orderBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v5/position/set-leverage":
			io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{}}`)
		case "/v5/order/create":
			if err := json.NewDecoder(r.Body).Decode(&orderBody); err != nil {
				t.Errorf("decode order body: %v", err)
			}
			io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"orderId":"abc-123"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", srv.URL)
	res, err := b.SubmitMarketOrder(context.Background(), OrderRequest{
		Symbol:     "BTCUSDT",
		Side:       model.SideBuy,
		Quantity:   0.01,
		StopLoss:   49000,
		TakeProfit: 52000,
		Leverage:   5,
		EntryPrice: 50000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OrderID != "abc-123" {
		t.Errorf("expected order id abc-123, got %s", res.OrderID)
	}
	if orderBody["qty"] != "0.01" || orderBody["stopLoss"] != "49000.00" || orderBody["takeProfit"] != "52000.00" {
		t.Errorf("unexpected order body %v", orderBody)
	}
	if orderBody["orderType"] != "Market" || orderBody["side"] != "Buy" {
		t.Errorf("unexpected order body %v", orderBody)
	}
}

func TestClosePosition_ReduceOnlyOpposite(t *testing.T) {
	var orderBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&orderBody)
		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"orderId":"close-1"}}`)
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", srv.URL)
	if err := b.ClosePosition(context.Background(), "BTCUSDT", model.SideSell, 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orderBody["side"] != "Buy" || orderBody["reduceOnly"] != "true" || orderBody["qty"] != "0.5" {
		t.Errorf("unexpected close body %v", orderBody)
	}
}

func TestDo_SurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"retCode":10003,"retMsg":"Invalid api key","result":{}}`)
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", srv.URL)
	if _, err := b.FetchEquity(context.Background()); err == nil {
		t.Error("expected error for non-zero retCode")
	}
}
