package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Authenticator resolves a session token sent over the socket to a user id.
type Authenticator func(ctx context.Context, token string) (int64, error)

type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Client pumps one websocket connection. It registers with the hub once the
// peer is authenticated and unregisters when either pump stops.
type Client struct {
	hub     *Hub
	ws      *websocket.Conn
	conn    *Conn
	auth    Authenticator
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(h *Hub, ws *websocket.Conn, auth Authenticator) *Client {
	return &Client{
		hub:     h,
		ws:      ws,
		conn:    NewConn(sendBuffer),
		auth:    auth,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  h.logger,
	}
}

// Serve runs the connection until it closes. userID is the caller resolved
// at upgrade time, or zero if the peer still has to authenticate.
func (c *Client) Serve(ctx context.Context, userID int64) {
	Send(c.conn, Event{Type: EventConnectionEstablished})
	if userID != 0 {
		c.authenticated(userID)
	}

	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) authenticated(userID int64) {
	c.hub.Register(userID, c.conn)
	Send(c.conn, Event{Type: EventAuthSuccess, Payload: map[string]int64{"userId": userID}})
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("read pump panic", zap.Any("panic", r))
		}
		c.hub.Unregister(c.conn)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			Send(c.conn, Event{Type: EventError, Payload: "rate limit exceeded"})
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			Send(c.conn, Event{Type: EventError, Payload: "invalid message"})
			continue
		}

		switch msg.Type {
		case "auth":
			userID, err := c.auth(ctx, msg.Token)
			if err != nil {
				Send(c.conn, Event{Type: EventAuthError, Payload: "authentication failed"})
				continue
			}
			c.authenticated(userID)
		case "ping":
			Send(c.conn, Event{Type: EventPong})
		default:
			Send(c.conn, Event{Type: EventError, Payload: "unknown message type"})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("write pump panic", zap.Any("panic", r))
		}
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.conn.Messages():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
