package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/komiyunity/relay-server/internal/auth"
	"github.com/komiyunity/relay-server/internal/config"
	"github.com/komiyunity/relay-server/internal/relay"
	"github.com/komiyunity/relay-server/internal/store"
)

// NewServer builds the HTTP server: directory REST routes plus the /ws gateway.
// st may be nil, which disables the directory endpoints.
func NewServer(cfg *config.Config, verifier auth.Verifier, st store.Store, registry *relay.Registry, router *relay.Router, lifecycle *relay.Lifecycle, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	if st != nil {
		users := NewUserHandlers(st, logger)
		engine.POST("/users", users.Upsert)
		engine.GET("/users", users.List)

		rooms := NewChatRoomHandlers(st, logger)
		api := engine.Group("/api", AuthMiddleware(verifier, logger))
		api.POST("/chatrooms", rooms.Create)
		api.GET("/chatrooms", rooms.List)
	}

	var userStore store.UserStore
	if st != nil {
		userStore = st
	}
	engine.GET("/ws", gin.WrapH(NewWSHandler(verifier, registry, router, lifecycle, userStore, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
