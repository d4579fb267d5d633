// Package push relays completed backtest reports from JetStream to
// dashboard websocket clients. Clients subscribe per symbol; one NATS
// subscription is held per symbol with at least one listener.
package push

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Krishiv14/AlgoTradeX/internal/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type PushGateway struct {
	logger        *zap.Logger
	js            nats.JetStreamContext
	clients       map[*Client]bool
	subscriptions map[string]map[*Client]bool // symbol -> listeners
	natsSubs      map[string]*nats.Subscription
	mu            sync.RWMutex
}

func NewPushGateway(js nats.JetStreamContext, logger *zap.Logger) *PushGateway {
	return &PushGateway{
		logger:        logger,
		js:            js,
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		natsSubs:      make(map[string]*nats.Subscription),
	}
}

// PublishResult pushes a completed report onto the result stream.
func (g *PushGateway) PublishResult(symbol string, report any) {
	data, err := json.Marshal(report)
	if err != nil {
		g.logger.Error("failed to marshal backtest report", zap.Error(err))
		return
	}
	if _, err := g.js.Publish(fmt.Sprintf("backtest.result.%s", symbol), data); err != nil {
		g.logger.Error("failed to publish backtest report", zap.Error(err))
	}
}

func (g *PushGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade websocket", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	g.mu.Lock()
	g.clients[client] = true
	g.mu.Unlock()
	infrastructure.WSConnections.Inc()

	go g.writePump(client)
	g.readPump(client)
}

func (g *PushGateway) readPump(c *Client) {
	defer func() {
		g.mu.Lock()
		delete(g.clients, c)
		for symbol, listeners := range g.subscriptions {
			delete(listeners, c)
			g.dropIfIdle(symbol)
		}
		g.mu.Unlock()
		infrastructure.WSConnections.Dec()
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var req struct {
			Action string `json:"action"` // "subscribe", "unsubscribe"
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}

		g.mu.Lock()
		switch req.Action {
		case "subscribe":
			if g.subscriptions[req.Symbol] == nil {
				g.subscriptions[req.Symbol] = make(map[*Client]bool)
				if err := g.subscribeToNATS(req.Symbol); err != nil {
					g.logger.Error("failed to subscribe to NATS", zap.String("symbol", req.Symbol), zap.Error(err))
				}
			}
			g.subscriptions[req.Symbol][c] = true
			g.logger.Info("client subscribed", zap.String("symbol", req.Symbol))
		case "unsubscribe":
			if listeners, ok := g.subscriptions[req.Symbol]; ok {
				delete(listeners, c)
				g.dropIfIdle(req.Symbol)
			}
		}
		g.mu.Unlock()
	}
}

// dropIfIdle tears down the NATS subscription once no listener remains.
// Caller must hold g.mu.
func (g *PushGateway) dropIfIdle(symbol string) {
	if len(g.subscriptions[symbol]) > 0 {
		return
	}
	if sub, ok := g.natsSubs[symbol]; ok {
		sub.Unsubscribe()
		delete(g.natsSubs, symbol)
		g.logger.Info("unsubscribed from NATS as no clients left", zap.String("symbol", symbol))
	}
	delete(g.subscriptions, symbol)
}

func (g *PushGateway) writePump(c *Client) {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (g *PushGateway) subscribeToNATS(symbol string) error {
	subject := fmt.Sprintf("backtest.result.%s", symbol)
	sub, err := g.js.Subscribe(subject, func(msg *nats.Msg) {
		g.mu.RLock()
		for c := range g.subscriptions[symbol] {
			select {
			case c.send <- msg.Data:
			default:
				// do not block, drop if the client is slow
			}
		}
		g.mu.RUnlock()
		msg.Ack()
	}, nats.ManualAck())

	if err != nil {
		return err
	}

	g.natsSubs[symbol] = sub
	g.logger.Info("subscribed to NATS subject", zap.String("subject", subject))
	return nil
}
