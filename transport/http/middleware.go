package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youmio/testnet-gateway/service"
)

// SessionHeader carries the opaque session id on every gated call.
const SessionHeader = "x-session"

const walletContextKey = "walletAddress"

// SessionMiddleware resolves the x-session header to the wallet bound
// at login. The caller-asserted wallet is never used for gated calls.
func SessionMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		address, err := auth.Resolve(c.Request.Context(), c.GetHeader(SessionHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(walletContextKey, address)
		c.Next()
	}
}

// AdminMiddleware guards the administrative endpoints with a static
// bearer credential, separate from the per-wallet session mechanism.
func AdminMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		presented, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}

func sessionWallet(c *gin.Context) string {
	return c.GetString(walletContextKey)
}
