package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"mini_thermostat/internal/models"
	"mini_thermostat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	replyBuffer = 8

	errInvalidIntent = "invalid intent: expected {\"type\": ...}"
)

// wsEnvelope is one server->client message. Card events are forwarded with
// their own type (view, more_info, command, error); replies to intents use
// "outcome" or "error".
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict to the configured dashboard origin
}

func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := c.Request.Context()
	events, unsubscribe := h.services.Card.Subscribe()
	defer unsubscribe()

	// Replies are written by this goroutine only; gorilla allows one writer.
	replies := make(chan wsEnvelope, replyBuffer)
	done := make(chan struct{})
	go h.startReader(ctx, conn, replies, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.sendView(ctx, conn); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEnvelope(conn, eventEnvelope(ev)); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case reply := <-replies:
			if err := writeEnvelope(conn, reply); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// startReader decodes intents from the client and routes them to the card.
// It returns, closing done, when the connection is gone.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, replies chan<- wsEnvelope, done chan<- struct{}) {
	defer close(done)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var in models.Intent
		if err := json.Unmarshal(msg, &in); err != nil || in.Kind == "" {
			h.reply(ctx, replies, wsEnvelope{Type: service.EventError, Error: errInvalidIntent})
			continue
		}
		out, err := h.services.Card.Handle(ctx, in)
		if err != nil {
			h.reply(ctx, replies, wsEnvelope{Type: service.EventError, Error: err.Error()})
			continue
		}
		h.reply(ctx, replies, wsEnvelope{Type: "outcome", Data: out})
	}
}

func (h *Handler) reply(ctx context.Context, replies chan<- wsEnvelope, env wsEnvelope) {
	select {
	case replies <- env:
	case <-ctx.Done():
	}
}

func (h *Handler) sendView(ctx context.Context, conn *websocket.Conn) error {
	v, err := h.services.Card.View(ctx)
	if err != nil {
		return writeEnvelope(conn, wsEnvelope{Type: service.EventError, Error: err.Error()})
	}
	return writeEnvelope(conn, wsEnvelope{Type: service.EventView, Data: v})
}

func eventEnvelope(ev service.Event) wsEnvelope {
	switch ev.Type {
	case service.EventView:
		return wsEnvelope{Type: ev.Type, Data: ev.View}
	case service.EventMoreInfo:
		return wsEnvelope{Type: ev.Type, Data: gin.H{"entity_id": ev.EntityID}}
	case service.EventCommand:
		return wsEnvelope{Type: ev.Type, Data: ev.Command}
	default:
		return wsEnvelope{Type: ev.Type, Data: ev.Command, Error: ev.Error}
	}
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
