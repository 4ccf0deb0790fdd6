package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dkeye/huddle/internal/adapters/signal"
	"github.com/dkeye/huddle/internal/app/orch"
	"github.com/dkeye/huddle/internal/config"
	"github.com/dkeye/huddle/internal/core"
	transport "github.com/dkeye/huddle/internal/transport/http"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// bearerToken looks in the Authorization header, then ?token=, then the
// cookie session.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	if t, ok := sessions.Default(c).Get(transport.SessionTokenKey).(string); ok {
		return t
	}
	return ""
}

// AuthMiddleware resolves the bearer token and rejects the request with 401
// before any handler (or socket upgrade) runs.
func AuthMiddleware(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := o.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			log.Debug().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("unauthorized")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(core.UserKey, user)
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))

	h := transport.NewHandlers(o, cfg.UploadDir, cfg.ICEServers)
	ws := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	})
	auth := AuthMiddleware(o)

	r.GET("/health", h.Health)
	r.Static("/uploads", cfg.UploadDir)

	r.GET("/ws", auth, func(c *gin.Context) {
		ws.HandleSignal(ctx, c)
	})

	api := r.Group("/api")
	api.POST("/register", h.Register)

	authed := api.Group("", auth)
	authed.GET("/rooms", h.ListRooms)
	authed.POST("/rooms", h.CreateRoom)
	authed.GET("/stats/rooms", h.RoomStats)
	authed.GET("/rooms/:roomId/channels", h.ListChannels)
	authed.POST("/rooms/:roomId/channels", h.CreateChannel)
	authed.GET("/rooms/:roomId/channels/:channelId/messages", h.ListMessages)
	authed.POST("/rooms/:roomId/channels/:channelId/messages", h.PostMessage)
	authed.POST("/uploads", h.Upload)
	authed.GET("/ice", h.ICE)

	log.Info().Str("module", "adapters.http").Str("uploads", cfg.UploadDir).Msg("router setup")
	return r
}
