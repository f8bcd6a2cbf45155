// Package feed streams live trade prices from the exchange websocket.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"TradePilot/internal/model"

	"github.com/gorilla/websocket"
)

const reconnectDelay = 5 * time.Second

// TickHandler receives each decoded trade tick.
type TickHandler func(tick model.Tick)

// Listener maintains a websocket subscription to the public trade stream for
// one instrument and reconnects on any failure.
type Listener struct {
	URL    string
	Symbol string
}

func NewListener(url, symbol string) *Listener {
	return &Listener{URL: url, Symbol: symbol}
}

// Run streams ticks to the handler until ctx is cancelled, reconnecting with
// a fixed delay whenever the connection drops.
func (l *Listener) Run(ctx context.Context, handler TickHandler) {
	for {
		if err := l.stream(ctx, handler); err != nil {
			if ctx.Err() != nil {
				log.Println("[INFO] market feed stopped")
				return
			}
			log.Printf("[WARN] market feed disconnected: %v, reconnecting in %v", err, reconnectDelay)
		}
		select {
		case <-ctx.Done():
			log.Println("[INFO] market feed stopped")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

type tradeMessage struct {
	Topic string `json:"topic"`
	Data  []struct {
		Symbol string `json:"s"`
		Price  string `json:"p"`
	} `json:"data"`
}

func (l *Listener) stream(ctx context.Context, handler TickHandler) error {
	// The watcher below must not outlive this connection, so it waits on a
	// per-connection context cancelled when stream returns.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(connCtx, l.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.URL, err)
	}
	defer conn.Close()

	sub := map[string]any{
		"op":   "subscribe",
		"args": []string{"publicTrade." + l.Symbol},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[INFO] subscribed to trade stream for %s", l.Symbol)

	// ReadMessage blocks with no context support; closing the connection on
	// cancellation unblocks it.
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var msg tradeMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("[WARN] decode feed message: %v", err)
			continue
		}
		if msg.Topic == "" || len(msg.Data) == 0 {
			continue
		}
		for _, trade := range msg.Data {
			price, err := strconv.ParseFloat(trade.Price, 64)
			if err != nil || price <= 0 {
				continue
			}
			handler(model.Tick{Symbol: trade.Symbol, Price: price})
		}
	}
}
