package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/adapters/ws"
	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/config"
	"github.com/dkeye/watchparty/internal/storage"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware hands every browser a stable cookie token. The
// per-connection participant id is minted at upgrade time; this token only
// ties HTTP traffic from the same client together in the logs.
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

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, uploads *storage.UploadStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("WatchpartySessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.StaticFS("/media", gin.Dir(cfg.UploadDir, false))
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("uploads", cfg.UploadDir).Msg("router setup")

	wsCtl := ws.NewController(coord, uploads, cfg)

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("ct", c.GetString("client_token")).Msg("ws endpoint hit")
		wsCtl.HandleWS(ctx, c)
	})
	api.POST("/upload", uploadHandler(cfg, uploads))
	api.GET("/videos", listVideosHandler(uploads))
	api.GET("/rooms", listRoomsHandler(coord.Rooms))

	return r
}
