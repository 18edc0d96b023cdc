package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/adapters/signal"
	"github.com/athar-taj/Live-Cogbee/internal/config"
)

// Controllers groups everything the router mounts.
type Controllers struct {
	Relay     *signal.Controller // pure-relay signaling
	SFU       *signal.Controller // media-orchestrated signaling
	Audio     *signal.AudioController
	Interview *InterviewAPI
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctls Controllers) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CogbeeSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/signal", func(c *gin.Context) {
		ctls.Relay.HandleWS(ctx, c)
	})
	api.GET("/ws/sfu", func(c *gin.Context) {
		ctls.SFU.HandleWS(ctx, c)
	})
	api.GET("/ws/audio", func(c *gin.Context) {
		ctls.Audio.HandleWS(c)
	})

	api.POST("/interview/analyze", ctls.Interview.Analyze)
	api.POST("/interview/verify-face", ctls.Interview.VerifyFace)
	api.GET("/video/create-room", ctls.Interview.CreateRoom)

	return r
}
