package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/adapters/signal"
	"github.com/Pi-Bouf/geckos.io/internal/app"
	"github.com/Pi-Bouf/geckos.io/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, srv *app.Server) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("GeckosSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Srv: srv}

	wrtc := r.Group("/.wrtc/v2")
	wrtc.POST("/connections", func(c *gin.Context) {
		h.CreateConnection(ctx, c)
	})
	wrtc.POST("/connections/:id/remote-description", h.RemoteDescription)
	wrtc.GET("/connections/:id/additional-candidates", h.AdditionalCandidates)
	wrtc.POST("/connections/:id/close", h.CloseConnection)

	api := r.Group("/api")
	api.GET("/rooms", h.ListRooms)
	api.POST("/connections/:id/room", h.JoinRoom)
	api.DELETE("/connections/:id/room", h.LeaveRoom)
	api.POST("/rooms/:room/broadcast", h.BroadcastRoom)

	api.GET("/ws/signal", func(c *gin.Context) {
		ctrl := signal.NewController(srv)
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
