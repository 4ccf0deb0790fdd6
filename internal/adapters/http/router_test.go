package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkeye/huddle/internal/app"
	"github.com/dkeye/huddle/internal/app/orch"
	"github.com/dkeye/huddle/internal/config"
	"github.com/dkeye/huddle/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t      *testing.T
	engine *gin.Engine
	dir    string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	reg := app.NewRegistry()
	bus := app.NewBroadcaster(reg, nil)
	o := orch.New(reg, app.NewRoomManager(st, reg), bus, app.NewChatDispatcher(st, bus, nil), st)

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{Mode: "test", Secret: "s3cret", UploadDir: dir, ICEServers: []string{"stun:stun.example.org:3478"}}
	return &api{t: t, engine: SetupRouter(ctx, cfg, o), dir: dir}
}

func (a *api) do(method, path, token string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var rd *bytes.Reader
	if s, ok := body.(string); ok {
		rd = bytes.NewReader([]byte(s))
	} else {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (a *api) register(name string) (string, *httptest.ResponseRecorder) {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/register", "", gin.H{"username": name})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string), w
}

func TestRegisterValidation(t *testing.T) {
	a := newAPI(t)
	w, body := a.do(http.MethodPost, "/api/register", "", gin.H{"username": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username is required", body["error"])

	w, body = a.do(http.MethodPost, "/api/register", "", gin.H{"username": strings.Repeat("x", 40)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username is too long", body["error"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/api/rooms", "/api/stats/rooms", "/api/rooms/x/channels", "/ws"} {
		w, body := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Unauthorized", body["error"], path)
	}
	w, _ := a.do(http.MethodGet, "/api/rooms", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenSources(t *testing.T) {
	a := newAPI(t)
	token, reg := a.register("alice")

	w, _ := a.do(http.MethodGet, "/api/rooms?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	cookies := reg.Result().Cookies()
	require.NotEmpty(t, cookies)
	w, _ = a.do(http.MethodGet, "/api/rooms", "", nil, cookies...)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoomsChannelsMessages(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register("alice")

	w, body := a.do(http.MethodPost, "/api/rooms", token, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Room name is required", body["error"])

	w, room := a.do(http.MethodPost, "/api/rooms", token, gin.H{"name": "lobby"})
	require.Equal(t, http.StatusCreated, w.Code)
	roomID := room["id"].(string)

	w, body = a.do(http.MethodPost, "/api/rooms/"+roomID+"/channels", token, gin.H{"name": "x", "type": "video"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Channel type must be text or voice", body["error"])

	w, body = a.do(http.MethodPost, "/api/rooms/missing/channels", token, gin.H{"name": "x", "type": "text"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Room not found", body["error"])

	w, _ = a.do(http.MethodGet, "/api/rooms/missing/channels", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, ch := a.do(http.MethodPost, "/api/rooms/"+roomID+"/channels", token, gin.H{"name": "general", "type": "text"})
	require.Equal(t, http.StatusCreated, w.Code)
	msgs := "/api/rooms/" + roomID + "/channels/" + ch["id"].(string) + "/messages"

	w, body = a.do(http.MethodPost, msgs, token, gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Message content is required", body["error"])

	w, body = a.do(http.MethodPost, msgs, token, "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON", body["error"])

	for _, text := range []string{"one", "two"} {
		w, _ = a.do(http.MethodPost, msgs, token, gin.H{"text": text})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, body = a.do(http.MethodGet, msgs, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := body["messages"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].(map[string]any)["text"])
	assert.Equal(t, "alice", list[1].(map[string]any)["user"].(map[string]any)["username"])

	w, body = a.do(http.MethodGet, "/api/stats/rooms", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["rooms"].([]any)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 1, stats[0].(map[string]any)["channels"])
}

func TestUploadIsServed(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register("alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "cat.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		URL          string `json:"url"`
		OriginalName string `json:"originalName"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "cat.png", out.OriginalName)
	assert.True(t, strings.HasPrefix(out.URL, "/uploads/"))
	assert.Equal(t, ".png", filepath.Ext(out.URL))

	data, err := os.ReadFile(filepath.Join(a.dir, filepath.Base(out.URL)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	w = httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, out.URL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestICEServers(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register("alice")
	w, body := a.do(http.MethodGet, "/api/ice", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"stun:stun.example.org:3478"}, body["iceServers"])
}

func TestHealthAndPreflight(t *testing.T) {
	a := newAPI(t)
	w, body := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["connections"])

	w, _ = a.do(http.MethodOptions, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
