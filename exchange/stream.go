package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"margintrader/market"
)

// FuturesWSURL is the Binance futures websocket endpoint.
const FuturesWSURL = "wss://fstream.binance.com/ws"

// KlineStream delivers closed candles from a Binance kline websocket
// subscription. In-progress klines are dropped; only the final update of
// each interval is forwarded, which is what candle-close strategies want.
type KlineStream struct {
	conn    *websocket.Conn
	candles chan market.Candle
	errs    chan error
	done    chan struct{}
}

// DialKlineStream connects to the <symbol>@kline_<interval> stream. wsURL
// may be empty to use the production endpoint.
func DialKlineStream(ctx context.Context, wsURL, symbol string, interval market.Interval) (*KlineStream, error) {
	if wsURL == "" {
		wsURL = FuturesWSURL
	}
	u := fmt.Sprintf("%s/%s@kline_%s", wsURL, strings.ToLower(symbol), interval)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial kline stream: %w", err)
	}

	s := &KlineStream{
		conn:    conn,
		candles: make(chan market.Candle, 64),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Candles returns the closed-candle channel. It is closed when the stream
// ends; check Err afterwards.
func (s *KlineStream) Candles() <-chan market.Candle { return s.candles }

// Err reports the terminal read error, if any, after Candles is closed.
func (s *KlineStream) Err() error {
	select {
	case err := <-s.errs:
		return err
	default:
		return nil
	}
}

// Close tears the connection down and stops the read loop.
func (s *KlineStream) Close() error {
	close(s.done)
	return s.conn.Close()
}

func (s *KlineStream) readLoop() {
	defer close(s.candles)

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// closed by Close(); not an error
			default:
				s.errs <- err
			}
			return
		}

		c, closed, err := parseKlineEvent(raw)
		if err != nil || !closed {
			continue
		}

		select {
		case s.candles <- c:
		case <-s.done:
			return
		}
	}
}

// klineEvent mirrors the Binance kline payload; prices arrive as strings.
type klineEvent struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Kline     struct {
		Start  int64  `json:"t"`
		End    int64  `json:"T"`
		Open   string `json:"o"`
		High   string `json:"h"`
		Low    string `json:"l"`
		Close  string `json:"c"`
		Volume string `json:"v"`
		Closed bool   `json:"x"`
	} `json:"k"`
}

func parseKlineEvent(raw []byte) (market.Candle, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return market.Candle{}, false, fmt.Errorf("parse kline event: %w", err)
	}
	if ev.Event != "kline" {
		return market.Candle{}, false, nil
	}

	k := ev.Kline
	vals := make([]float64, 5)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("parse kline event: %w", err)
		}
		vals[i] = v
	}

	c := market.Candle{
		Time:   time.UnixMilli(k.Start).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}
	return c, k.Closed, nil
}
