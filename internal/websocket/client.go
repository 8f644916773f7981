// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// inbound is a client-to-server frame. Only pings are understood.
type inbound struct {
	Type string `json:"type"`
}

// Client pumps frames between a session and its websocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *Session
}

// NewClient binds conn to an already registered session.
func NewClient(hub *Hub, conn *websocket.Conn, session *Session) *Client {
	return &Client{hub: hub, conn: conn, session: session}
}

// NewUpgrader accepts same-host requests and any origin in allowed. A "*"
// entry allows every origin.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := set["*"]; ok {
				return true
			}
			if _, ok := set[origin]; ok {
				return true
			}
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

// ServeWS upgrades the request and runs a session for actorID until the
// connection or the session ends.
func (h *Hub) ServeWS(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, actorID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	session, err := h.Register(r.Context(), actorID)
	if err != nil {
		h.log.Warn().Err(err).Str("actor_id", actorID).Msg("Session registration failed")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	NewClient(h, conn, session).Run()
}

// Run starts the write pump and blocks in the read pump.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		c.hub.Unregister(ctx, c.session)
		cancel()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("session_id", c.session.id).Msg("Unexpected websocket close")
			}
			return
		}

		var msg inbound
		if json.Unmarshal(data, &msg) != nil || msg.Type != FramePing {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		_ = c.hub.Send(ctx, c.session, FramePong, nil)
		cancel()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frames := c.session.Frames()
	for {
		select {
		case frame, ok := <-frames:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, closeMessage(c.session.Err()))
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				c.hub.log.Error().Err(err).Str("type", frame.Type).Msg("Failed to encode frame")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			if frame.Type == FrameMatch {
				ctx, cancel := context.WithTimeout(context.Background(), writeWait)
				_ = c.hub.Confirm(ctx, c.session, frame)
				cancel()
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeMessage(cause error) []byte {
	if errors.Is(cause, ErrSessionStalled) {
		return websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrSessionStalled.Error())
	}
	return websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed")
}
