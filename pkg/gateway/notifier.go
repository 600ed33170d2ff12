// Package gateway pushes messages to a locally running chat gateway over its
// WebSocket RPC so price alerts land in the user's chat session.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultURL is where the gateway listens on a default install.
const DefaultURL = "ws://127.0.0.1:18790"

// request is the gateway's RPC envelope.
type request struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params params `json:"params"`
}

type params struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// Notifier sends notify.send calls to the gateway. The zero-value-ish
// unconfigured case (empty chat id) is a silent no-op, so callers never need
// to special-case a missing gateway. It implements monitor.Notifier.
type Notifier struct {
	url     string
	channel string
	chatID  string
	timeout time.Duration
	limiter *rate.Limiter

	// dial is swappable for tests.
	dial func(ctx context.Context, url string) (conn, error)
}

type conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// New creates a Notifier targeting the gateway at url. channel defaults to
// "telegram" on the gateway side when empty.
func New(url, channel, chatID string) *Notifier {
	if url == "" {
		url = DefaultURL
	}
	return &Notifier{
		url:     url,
		channel: channel,
		chatID:  chatID,
		timeout: 5 * time.Second,
		// One message a second with a small burst keeps a chatty run from
		// flooding the chat.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		dial:    dialWebsocket,
	}
}

func dialWebsocket(ctx context.Context, url string) (conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return c, err
}

// Notify pushes one message. Delivery is best effort: an unreachable or slow
// gateway logs a warning and drops the message, it never fails the caller.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if n.chatID == "" || message == "" {
		return
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	c, err := n.dial(ctx, n.url)
	if err != nil {
		zap.L().Warn("gateway: unreachable, dropping notification", zap.Error(err))
		return
	}
	defer c.Close()

	req := request{
		Type:   "req",
		ID:     "notify-" + uuid.NewString(),
		Method: "notify.send",
		Params: params{Channel: n.channel, ChatID: n.chatID, Message: message},
	}
	if err := c.WriteJSON(req); err != nil {
		zap.L().Warn("gateway: send failed", zap.Error(err))
		return
	}

	// Wait for the ack so the gateway has the message before we hang up,
	// but don't insist on it.
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(n.timeout)
	}
	_ = c.SetReadDeadline(deadline)
	if _, payload, err := c.ReadMessage(); err == nil {
		var res struct {
			OK bool `json:"ok"`
		}
		if json.Unmarshal(payload, &res) == nil && !res.OK {
			zap.L().Warn("gateway: notify rejected", zap.ByteString("response", payload))
		}
	}
}
