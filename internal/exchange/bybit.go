package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"TradePilot/internal/model"
)

const (
	defaultBaseURL = "https://api.bybit.com"
	recvWindow     = "5000"
	categoryLinear = "linear"
)

// Bybit implements the minimal Bybit v5 REST bindings the engine needs.
type Bybit struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// NewBybit returns a ready-to-use client.
func NewBybit(apiKey, apiSecret, baseURL string) *Bybit {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Bybit{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *Bybit) Name() string { return "bybit" }

// bybitResponse is the envelope every v5 endpoint returns.
type bybitResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// FetchCandles retrieves recent OHLCV data. Bybit returns bars newest-first;
// they are reversed to most-recent-last before returning.
func (b *Bybit) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("category", categoryLinear)
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	result, err := b.get(ctx, "/v5/market/kline", params, false)
	if err != nil {
		return nil, fmt.Errorf("get kline: %w", err)
	}

	var payload struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode kline: %w", err)
	}
	if len(payload.List) == 0 {
		return nil, errors.New("no candles returned")
	}

	candles := make([]model.Candle, 0, len(payload.List))
	for i := len(payload.List) - 1; i >= 0; i-- {
		entry := payload.List[i]
		if len(entry) < 6 {
			continue
		}
		startMs, _ := strconv.ParseInt(entry[0], 10, 64)
		open, _ := strconv.ParseFloat(entry[1], 64)
		high, _ := strconv.ParseFloat(entry[2], 64)
		low, _ := strconv.ParseFloat(entry[3], 64)
		closePrice, _ := strconv.ParseFloat(entry[4], 64)
		volume, _ := strconv.ParseFloat(entry[5], 64)

		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(startMs),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}
	return candles, nil
}

// FetchEquity reads the unified account's total equity.
func (b *Bybit) FetchEquity(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("accountType", "UNIFIED")

	result, err := b.get(ctx, "/v5/account/wallet-balance", params, true)
	if err != nil {
		return 0, fmt.Errorf("get wallet balance: %w", err)
	}

	var payload struct {
		List []struct {
			TotalEquity string `json:"totalEquity"`
		} `json:"list"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return 0, fmt.Errorf("decode wallet balance: %w", err)
	}
	if len(payload.List) == 0 {
		return 0, errors.New("empty wallet balance response")
	}
	equity, err := strconv.ParseFloat(payload.List[0].TotalEquity, 64)
	if err != nil {
		return 0, fmt.Errorf("parse equity %q: %w", payload.List[0].TotalEquity, err)
	}
	return equity, nil
}

// FetchPosition returns the instrument's open position, or nil when flat.
func (b *Bybit) FetchPosition(ctx context.Context, symbol string) (*model.Position, error) {
	params := url.Values{}
	params.Set("category", categoryLinear)
	params.Set("symbol", symbol)

	result, err := b.get(ctx, "/v5/position/list", params, true)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}

	var payload struct {
		List []struct {
			Symbol string `json:"symbol"`
			Side   string `json:"side"`
			Size   string `json:"size"`
		} `json:"list"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	for _, item := range payload.List {
		size, _ := strconv.ParseFloat(item.Size, 64)
		if size == 0 || (item.Side != string(model.SideBuy) && item.Side != string(model.SideSell)) {
			continue
		}
		return &model.Position{
			Symbol: item.Symbol,
			Side:   model.Side(item.Side),
			Size:   size,
		}, nil
	}
	return nil, nil
}

// SubmitMarketOrder places a market order with attached stop-loss and
// take-profit levels. Leverage is applied best-effort beforehand.
func (b *Bybit) SubmitMarketOrder(ctx context.Context, req OrderRequest) (*model.OrderResult, error) {
	if req.Leverage > 0 {
		if err := b.setLeverage(ctx, req.Symbol, req.Leverage); err != nil {
			// Usually "leverage not modified"; the order itself decides.
			log.Printf("[WARN] set leverage for %s: %v", req.Symbol, err)
		}
	}

	body := map[string]string{
		"category":   categoryLinear,
		"symbol":     req.Symbol,
		"side":       string(req.Side),
		"orderType":  "Market",
		"qty":        formatQty(req.Quantity),
		"stopLoss":   formatPrice(req.StopLoss),
		"takeProfit": formatPrice(req.TakeProfit),
	}
	result, err := b.post(ctx, "/v5/order/create", body)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	return &model.OrderResult{
		OrderID:     payload.OrderID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		FilledPrice: req.EntryPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		Quantity:    req.Quantity,
	}, nil
}

// ClosePosition submits a reduce-only market order on the opposite side for
// the full size.
func (b *Bybit) ClosePosition(ctx context.Context, symbol string, side model.Side, quantity float64) error {
	body := map[string]string{
		"category":   categoryLinear,
		"symbol":     symbol,
		"side":       string(side.Opposite()),
		"orderType":  "Market",
		"qty":        formatQty(quantity),
		"reduceOnly": "true",
	}
	if _, err := b.post(ctx, "/v5/order/create", body); err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	return nil
}

func (b *Bybit) setLeverage(ctx context.Context, symbol string, leverage float64) error {
	lev := strconv.FormatFloat(leverage, 'f', -1, 64)
	body := map[string]string{
		"category":     categoryLinear,
		"symbol":       symbol,
		"buyLeverage":  lev,
		"sellLeverage": lev,
	}
	_, err := b.post(ctx, "/v5/position/set-leverage", body)
	return err
}

func (b *Bybit) get(ctx context.Context, path string, params url.Values, signed bool) (json.RawMessage, error) {
	endpoint := b.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if signed {
		if b.apiKey == "" || b.apiSecret == "" {
			return nil, errors.New("api key/secret required for signed endpoints")
		}
		b.signRequest(req, params.Encode())
	}
	return b.do(req)
}

func (b *Bybit) post(ctx context.Context, path string, body map[string]string) (json.RawMessage, error) {
	if b.apiKey == "" || b.apiSecret == "" {
		return nil, errors.New("api key/secret required for signed endpoints")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	b.signRequest(req, string(raw))
	return b.do(req)
}

// signRequest applies the v5 HMAC headers; payload is the encoded query string
// for GET requests or the raw JSON body for POST requests.
func (b *Bybit) signRequest(req *http.Request, payload string) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", b.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
	req.Header.Set("X-BAPI-SIGN", sign(b.apiSecret, timestamp+b.apiKey+recvWindow+payload))
}

func (b *Bybit) do(req *http.Request) (json.RawMessage, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	var envelope bybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", envelope.RetCode, envelope.RetMsg)
	}
	return envelope.Result, nil
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
