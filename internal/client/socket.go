package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/huddle/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrSocketClosed = errors.New("socket closed")

// Event is one server frame, decoded lazily.
type Event struct {
	Type string
	Raw  json.RawMessage
}

func (e Event) Decode(v any) error { return json.Unmarshal(e.Raw, v) }

// Socket is the signaling connection of one participant.
type Socket struct {
	conn      *websocket.Conn
	incoming  chan Event
	outgoing  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// WebSocketURL turns an http(s) base url into the /ws endpoint.
func WebSocketURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func Dial(ctx context.Context, baseURL, token string) (*Socket, error) {
	wsURL, err := WebSocketURL(baseURL, token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	s := &Socket{
		conn:     conn,
		incoming: make(chan Event, 16),
		outgoing: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.readPump()
	go s.writePump()
	return s, nil
}

func (s *Socket) readPump() {
	defer func() {
		s.Close()
		close(s.incoming)
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("bad frame from server")
			continue
		}
		select {
		case s.incoming <- Event{Type: head.Type, Raw: data}:
		case <-s.done:
			return
		}
	}
}

func (s *Socket) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data := <-s.outgoing:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues v as a JSON frame.
func (s *Socket) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrSocketClosed
	default:
	}
	select {
	case s.outgoing <- b:
		return nil
	case <-s.done:
		return ErrSocketClosed
	}
}

// Incoming is closed when the socket stops reading.
func (s *Socket) Incoming() <-chan Event { return s.incoming }

func (s *Socket) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Socket) Join(room domain.RoomID, channel domain.ChannelID) error {
	return s.Send(map[string]any{"type": "join", "roomId": room, "channelId": channel})
}

func (s *Socket) Chat(text, emoji string, attachments []string) error {
	return s.Send(map[string]any{"type": "chat", "text": text, "emoji": emoji, "attachments": attachments})
}

func (s *Socket) Ping() error { return s.Send(map[string]string{"type": "ping"}) }

func (s *Socket) Whoami() error { return s.Send(map[string]string{"type": "whoami"}) }
