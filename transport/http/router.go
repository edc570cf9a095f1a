package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the wiring the router needs beyond the handlers.
type RouterConfig struct {
	Debug      bool
	Origin     string
	AdminToken string
}

// NewRouter builds the gin engine with all routes mounted under /api/v1.
func NewRouter(cfg RouterConfig, h *Handlers, session gin.HandlerFunc) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if cfg.Origin == "" || cfg.Origin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.Origin}
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, SessionHeader, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public login flow. Everything else requires a session.
	api.GET("/auth/message/:wallet", h.AuthMessage)
	api.POST("/auth/session/:wallet", h.CreateSession)

	gated := api.Group("")
	gated.Use(session)
	{
		gated.POST("/auth/logout", h.Logout)
		gated.GET("/messages", h.Messages)
		gated.GET("/faucet/cooldown", h.FaucetCooldown)
		gated.POST("/faucet/claim", h.FaucetClaim)
		gated.POST("/chat", h.Chat)
		gated.GET("/chat/cooldown", h.ChatCooldown)
		gated.POST("/badge/claim", h.BadgeClaim)
		gated.POST("/chat/mint", h.ChatMint)
	}

	admin := api.Group("")
	admin.Use(AdminMiddleware(cfg.AdminToken))
	{
		admin.GET("/signature/take/:wallet", h.SignatureTake)
		admin.GET("/signature/mint/:wallet", h.SignatureMint)
		admin.GET("/allowlist", h.AllowlistIndex)
		admin.POST("/allowlist", h.AllowlistAdd)
		admin.DELETE("/allowlist", h.AllowlistRemove)
	}

	return r
}
