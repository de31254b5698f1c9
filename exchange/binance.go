package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"margintrader/market"
)

// FuturesURL is the base URL for Binance USDT-margined futures.
const FuturesURL = "https://fapi.binance.com"

// klinesMaxLimit is the per-request row cap on /fapi/v1/klines.
const klinesMaxLimit = 1500

// Binance is a REST client for the Binance futures API. It implements
// Exchange.
type Binance struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

// Option customizes a Binance client.
type Option func(*Binance)

// WithBaseURL overrides the API endpoint (used by tests and mirrors).
func WithBaseURL(u string) Option {
	return func(b *Binance) { b.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Binance) { b.httpClient = c }
}

// NewBinance creates a Binance futures client. The key pair is only needed
// for signed endpoints (orders, leverage, margin type); kline and metadata
// queries work without one.
func NewBinance(apiKey, secretKey string, opts ...Option) *Binance {
	b := &Binance{
		baseURL:   FuturesURL,
		apiKey:    apiKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol            string `json:"symbol"`
		QuantityPrecision int    `json:"quantityPrecision"`
	} `json:"symbols"`
}

// SymbolPrecision looks up the quantity precision for symbol from the
// exchange instrument metadata.
func (b *Binance) SymbolPrecision(ctx context.Context, symbol string) (int, error) {
	body, err := b.get(ctx, "/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return 0, err
	}

	var info exchangeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return 0, fmt.Errorf("parse exchange info: %w", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol == symbol {
			return s.QuantityPrecision, nil
		}
	}
	return 0, fmt.Errorf("symbol %q not found in exchange info", symbol)
}

// Klines fetches the trailing days of candles at the given interval,
// oldest first, paging through the API row limit as needed.
func (b *Binance) Klines(ctx context.Context, symbol string, interval market.Interval, days int) ([]market.Candle, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	var out []market.Candle
	for start.Before(end) {
		params := url.Values{}
		params.Set("symbol", symbol)
		params.Set("interval", string(interval))
		params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
		params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
		params.Set("limit", strconv.Itoa(klinesMaxLimit))

		body, err := b.get(ctx, "/fapi/v1/klines", params)
		if err != nil {
			return nil, err
		}

		batch, err := parseKlines(body)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)

		last := batch[len(batch)-1].Time
		if !last.After(start) {
			break
		}
		start = last.Add(time.Millisecond)

		if len(batch) < klinesMaxLimit {
			break
		}
	}

	return out, nil
}

// parseKlines decodes the raw kline rows:
// [openTime, open, high, low, close, volume, closeTime, ...]
func parseKlines(body []byte) ([]market.Candle, error) {
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse klines: %w", err)
	}

	out := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("parse klines: short row (%d fields)", len(row))
		}

		ms, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("parse klines: bad open time %v", row[0])
		}

		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			s, ok := row[i+1].(string)
			if !ok {
				return nil, fmt.Errorf("parse klines: bad field %v", row[i+1])
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse klines: %w", err)
			}
			vals[i] = v
		}

		out = append(out, market.Candle{
			Time:   time.UnixMilli(int64(ms)).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return out, nil
}

type orderResponse struct {
	OrderID int64  `json:"orderId"`
	Symbol  string `json:"symbol"`
	Side    string `json:"side"`
	OrigQty string `json:"origQty"`
	Status  string `json:"status"`
}

// CreateMarketOrder places a signed market order.
func (b *Binance) CreateMarketOrder(ctx context.Context, symbol string, side Side, quantity float64) (Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))

	body, err := b.signedPost(ctx, "/fapi/v1/order", params)
	if err != nil {
		return Order{}, fmt.Errorf("create market order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Order{}, fmt.Errorf("parse order response: %w", err)
	}

	qty, _ := strconv.ParseFloat(resp.OrigQty, 64)
	return Order{
		ID:       resp.OrderID,
		Symbol:   resp.Symbol,
		Side:     Side(resp.Side),
		Quantity: qty,
		Status:   resp.Status,
	}, nil
}

// SetLeverage sets the symbol's leverage multiplier.
func (b *Binance) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	if _, err := b.signedPost(ctx, "/fapi/v1/leverage", params); err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}
	return nil
}

// SetIsolatedMargin switches the symbol to isolated margin mode. Binance
// answers with an error when the mode is already set; that case is treated
// as success.
func (b *Binance) SetIsolatedMargin(ctx context.Context, symbol string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", "ISOLATED")

	_, err := b.signedPost(ctx, "/fapi/v1/marginType", params)
	if err != nil {
		var apiErr *APIError
		// -4046: "No need to change margin type."
		if errors.As(err, &apiErr) && apiErr.Code == -4046 {
			return nil
		}
		return fmt.Errorf("set margin type: %w", err)
	}
	return nil
}

func (b *Binance) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := b.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return b.do(req)
}

func (b *Binance) signedPost(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	query := params.Encode()
	query += "&signature=" + b.sign(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)
	return b.do(req)
}

// sign computes the hex HMAC-SHA256 of the encoded query string, as the
// Binance signed-endpoint scheme requires.
func (b *Binance) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(b.secretKey))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func (b *Binance) do(req *http.Request) ([]byte, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(body, apiErr) == nil && apiErr.Code != 0 {
			return nil, apiErr
		}
		return nil, fmt.Errorf("binance: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// APIError is a structured error payload from the Binance API.
type APIError struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: status %d code %d: %s", e.Status, e.Code, e.Msg)
}
