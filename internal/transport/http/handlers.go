package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/dkeye/huddle/internal/app/orch"
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionTokenKey is the cookie session field remembering the bearer token.
const SessionTokenKey = "token"

type RegisterRequest struct {
	Username string `json:"username"`
}

type RegisterResponse struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	Token    string        `json:"token"`
}

type RoomRequest struct {
	Name string `json:"name"`
}

type ChannelRequest struct {
	Name string             `json:"name"`
	Type domain.ChannelKind `json:"type"`
}

type MessageRequest struct {
	Text        string   `json:"text"`
	Emoji       string   `json:"emoji"`
	Attachments []string `json:"attachments"`
}

// Handlers serves the REST collaborators: identity, rooms, channels,
// messages and uploads.
type Handlers struct {
	Orch       *orch.Orchestrator
	UploadDir  string
	ICEServers []string
}

func NewHandlers(o *orch.Orchestrator, uploadDir string, iceServers []string) *Handlers {
	return &Handlers{Orch: o, UploadDir: uploadDir, ICEServers: iceServers}
}

func CurrentUser(c *gin.Context) *domain.User {
	v, _ := c.Get(core.UserKey)
	u, _ := v.(*domain.User)
	return u
}

func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}
	user, token, err := h.Orch.RegisterUser(c.Request.Context(), req.Username)
	if errors.Is(err, domain.ErrUsernameTooLong) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is too long"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(SessionTokenKey, token)
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Str("module", "transport.http").Msg("save session")
	}
	c.JSON(http.StatusOK, RegisterResponse{UserID: user.ID, Username: user.Username, Token: token})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	rooms, err := h.Orch.Rooms.List(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
		return
	}
	room, err := h.Orch.Rooms.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// RoomStats lists rooms with their live connection counts.
func (h *Handlers) RoomStats(c *gin.Context) {
	info, err := h.Orch.Rooms.Info(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": info})
}

func (h *Handlers) ListChannels(c *gin.Context) {
	room, err := h.Orch.Rooms.GetRoom(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": room.Channels})
}

func (h *Handlers) CreateChannel(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	if _, err := h.Orch.Rooms.GetRoom(c.Request.Context(), roomID); err != nil {
		storeError(c, err)
		return
	}
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel name is required"})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel type must be text or voice"})
		return
	}
	ch, err := h.Orch.Rooms.CreateChannel(c.Request.Context(), roomID, req.Name, req.Type)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *Handlers) ListMessages(c *gin.Context) {
	msgs, err := h.Orch.Chat.History(c.Request.Context(), messageKey(c))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handlers) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	msg, err := h.Orch.Chat.PostMessage(c.Request.Context(), messageKey(c), *CurrentUser(c), req.Text, req.Emoji, req.Attachments)
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is required"})
	case errors.Is(err, core.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many messages"})
	case err != nil:
		internalError(c, err)
	default:
		c.JSON(http.StatusCreated, msg)
	}
}

// Upload stores one multipart file under a random name and returns the
// url it is served from.
func (h *Handlers) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File required"})
		return
	}
	name := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(h.UploadDir, name)); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": "/uploads/" + name, "originalName": file.Filename})
}

// ICE tells clients which STUN/TURN servers to configure their peer
// connections with.
func (h *Handlers) ICE(c *gin.Context) {
	servers := h.ICEServers
	if servers == nil {
		servers = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": h.Orch.Registry.Count()})
}

func messageKey(c *gin.Context) domain.MessageKey {
	return domain.MessageKey{
		RoomID:    domain.RoomID(c.Param("roomId")),
		ChannelID: domain.ChannelID(c.Param("channelId")),
	}
}

func storeError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	internalError(c, err)
}

func internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("module", "transport.http").Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}
