// Package client is the participant side of the hub: a REST client for the
// collaborator endpoints, a signaling socket and a voice session that drives
// the peer negotiator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/huddle/internal/domain"
)

type Registration struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	Token    string        `json:"token"`
}

// API talks to the REST endpoints of one server.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.Status, e.Message)
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *API) Register(ctx context.Context, username string) (*Registration, error) {
	var r Registration
	if err := a.do(ctx, http.MethodPost, "/api/register", map[string]string{"username": username}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *API) Rooms(ctx context.Context) ([]domain.Room, error) {
	var out struct {
		Rooms []domain.Room `json:"rooms"`
	}
	err := a.do(ctx, http.MethodGet, "/api/rooms", nil, &out)
	return out.Rooms, err
}

// ICEServers returns the STUN/TURN urls the server recommends.
func (a *API) ICEServers(ctx context.Context) ([]string, error) {
	var out struct {
		ICEServers []string `json:"iceServers"`
	}
	err := a.do(ctx, http.MethodGet, "/api/ice", nil, &out)
	return out.ICEServers, err
}

func (a *API) CreateRoom(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	if err := a.do(ctx, http.MethodPost, "/api/rooms", map[string]string{"name": name}, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (a *API) CreateChannel(ctx context.Context, room domain.RoomID, name string, kind domain.ChannelKind) (*domain.Channel, error) {
	var ch domain.Channel
	body := map[string]string{"name": name, "type": string(kind)}
	if err := a.do(ctx, http.MethodPost, "/api/rooms/"+string(room)+"/channels", body, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (a *API) Messages(ctx context.Context, key domain.MessageKey) ([]domain.ChatMessage, error) {
	var out struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	err := a.do(ctx, http.MethodGet, messagesPath(key), nil, &out)
	return out.Messages, err
}

func (a *API) PostMessage(ctx context.Context, key domain.MessageKey, text, emoji string, attachments []string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	body := map[string]any{"text": text, "emoji": emoji, "attachments": attachments}
	if err := a.do(ctx, http.MethodPost, messagesPath(key), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func messagesPath(key domain.MessageKey) string {
	return "/api/rooms/" + string(key.RoomID) + "/channels/" + string(key.ChannelID) + "/messages"
}
