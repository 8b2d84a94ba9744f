// Package stream maintains the authenticated websocket connection to the
// CLOB user channel and keeps a rolling window of fills for the account.
package stream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
)

const (
	maxFills       = 1000
	reconnectDelay = 5 * time.Second
)

// Fill is one execution against the account's orders.
type Fill struct {
	ID        string    `json:"fill_id"`
	Market    string    `json:"market"`
	AssetID   string    `json:"asset_id"`
	OrderID   string    `json:"order_id"`
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// userMessage is the envelope on the user channel. Trade events carry the
// execution details inline.
type userMessage struct {
	EventType string `json:"event_type"`
	ID        string `json:"id"`
	Market    string `json:"market"`
	AssetID   string `json:"asset_id"`
	TakerOID  string `json:"taker_order_id"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Status    string `json:"status"`
	MatchTime string `json:"match_time"`
}

// UserStream connects to the user channel with L2 credentials and records
// fills. It reconnects on every failure until Stop.
type UserStream struct {
	wsURL      string
	apiKey     string
	apiSecret  string
	passphrase string

	mu    sync.RWMutex
	fills []Fill

	done chan struct{}
	once sync.Once
}

func NewUserStream(wsURL, apiKey, apiSecret, passphrase string) *UserStream {
	return &UserStream{
		wsURL:      wsURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		fills:      make([]Fill, 0),
		done:       make(chan struct{}),
	}
}

func (s *UserStream) Start() {
	go s.run()
}

func (s *UserStream) Stop() {
	s.once.Do(func() { close(s.done) })
}

// Fills returns a copy of the recorded fills, newest last.
func (s *UserStream) Fills() []Fill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Fill, len(s.fills))
	copy(out, s.fills)
	return out
}

func (s *UserStream) run() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.connectAndRead(); err != nil {
			logger.Warn("user stream disconnected", "error", err)
		}

		select {
		case <-s.done:
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *UserStream) connectAndRead() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := s.authenticate(conn); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	sub := map[string]interface{}{
		"type":         "subscribe",
		"channel_name": "user",
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.Info("user stream connected", "url", s.wsURL)

	for {
		select {
		case <-s.done:
			return nil
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		s.handleMessage(msg)
	}
}

func (s *UserStream) authenticate(conn *websocket.Conn) error {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	signStr := ts + "GET" + "/ws/user"

	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(signStr))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return conn.WriteJSON(map[string]string{
		"type":       "auth",
		"key":        s.apiKey,
		"signature":  sig,
		"timestamp":  ts,
		"passphrase": s.passphrase,
	})
}

func (s *UserStream) handleMessage(raw []byte) {
	// The channel sends both single messages and batches.
	var msgs []userMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		var single userMessage
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return
		}
		msgs = []userMessage{single}
	}

	for _, m := range msgs {
		if m.EventType != "trade" {
			continue
		}
		s.record(m)
	}
}

func (s *UserStream) record(m userMessage) {
	ts := time.Now()
	if m.MatchTime != "" {
		var unix int64
		if _, err := fmt.Sscanf(m.MatchTime, "%d", &unix); err == nil && unix > 0 {
			ts = time.Unix(unix, 0)
		}
	}

	fill := Fill{
		ID:        m.ID,
		Market:    m.Market,
		AssetID:   m.AssetID,
		OrderID:   m.TakerOID,
		Side:      m.Side,
		Price:     m.Price,
		Size:      m.Size,
		Status:    m.Status,
		Timestamp: ts,
	}

	s.mu.Lock()
	s.fills = append(s.fills, fill)
	if len(s.fills) > maxFills {
		s.fills = s.fills[len(s.fills)-maxFills:]
	}
	s.mu.Unlock()

	logger.Info("fill recorded",
		"market", m.Market,
		"side", m.Side,
		"price", m.Price,
		"size", m.Size)
}
