package http

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/service"
)

// Handlers contains the HTTP handlers for every gateway endpoint.
type Handlers struct {
	auth      *service.AuthService
	faucet    *service.FaucetService
	chat      *service.ChatService
	badge     *service.BadgeService
	allowlist *service.AllowlistService
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, faucet *service.FaucetService, chat *service.ChatService, badge *service.BadgeService, allowlist *service.AllowlistService) *Handlers {
	return &Handlers{
		auth:      auth,
		faucet:    faucet,
		chat:      chat,
		badge:     badge,
		allowlist: allowlist,
	}
}

// AuthMessage returns the challenge text a wallet must sign to log in.
func (h *Handlers) AuthMessage(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	uri := c.Query("uri")
	if uri == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing uri"})
		return
	}

	message, err := h.auth.Challenge(c.Request.Context(), wallet, uri)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authMessage": message})
}

// CreateSession verifies a signed challenge and returns a session id.
func (h *Handlers) CreateSession(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	var req struct {
		Message   string `json:"message" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sessionID, err := h.auth.Login(c.Request.Context(), wallet, req.Message, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidChallenge), errors.Is(err, core.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

// Logout closes the presented session.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetHeader(SessionHeader)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// FaucetCooldown reports seconds until the next claim.
func (h *Handlers) FaucetCooldown(c *gin.Context) {
	status, err := h.faucet.Cooldown(c.Request.Context(), sessionWallet(c))
	if err != nil {
		if errors.Is(err, core.ErrNotAllowlisted) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet not allowlisted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cooldown"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// FaucetClaim mints testnet tokens to the session wallet.
func (h *Handlers) FaucetClaim(c *gin.Context) {
	status, err := h.faucet.Claim(c.Request.Context(), sessionWallet(c))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotAllowlisted):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet not allowlisted"})
		case errors.Is(err, core.ErrOnCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "On cooldown", "nextClaimIn": status.NextClaimIn})
		case errors.Is(err, core.ErrUpstreamFailure):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Faucet unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Claim failed"})
		}
		return
	}

	c.JSON(http.StatusOK, status)
}

// Chat runs one gated chat turn against the model.
func (h *Handlers) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.chat.Message(c.Request.Context(), sessionWallet(c), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotAllowlisted), errors.Is(err, core.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot message", "remainingInputs": 0})
		case errors.Is(err, core.ErrQuotaExhausted):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":             "Message limit reached",
				"remainingCooldown": res.RemainingCooldown,
				"remainingInputs":   0,
			})
		case errors.Is(err, core.ErrUpstreamFailure):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Chain unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// ChatCooldown reports the quota window without mutating it.
func (h *Handlers) ChatCooldown(c *gin.Context) {
	res, err := h.chat.Cooldown(c.Request.Context(), sessionWallet(c))
	if err != nil {
		if errors.Is(err, core.ErrNotAllowlisted) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot message", "remainingInputs": 0})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cooldown"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"remainingCooldown": res.RemainingCooldown,
		"remainingMessages": res.RemainingInputs,
	})
}

// BadgeClaim issues a badge-claim signature for the session wallet.
func (h *Handlers) BadgeClaim(c *gin.Context) {
	res, err := h.badge.ClaimSignature(c.Request.Context(), sessionWallet(c))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrAlreadyClaimed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Badge already minted"})
		case errors.Is(err, core.ErrUpstreamFailure):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Chain unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue signature"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// ChatMint issues a message-mint signature for one of the session
// wallet's chat messages.
func (h *Handlers) ChatMint(c *gin.Context) {
	var req struct {
		TokenID string `json:"tokenId" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tokenId"})
		return
	}

	res, err := h.badge.MintSignature(c.Request.Context(), sessionWallet(c), tokenID, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue signature"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// Messages lists the decrypted minted messages for a badge.
func (h *Handlers) Messages(c *gin.Context) {
	tokenID, ok := new(big.Int).SetString(c.Query("tokenId"), 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tokenId"})
		return
	}

	messages, err := h.badge.MintedMessages(c.Request.Context(), tokenID)
	if err != nil {
		if errors.Is(err, core.ErrUpstreamFailure) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Chain unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SignatureTake is the admin raw badge-claim issuance.
func (h *Handlers) SignatureTake(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	res, err := h.badge.TakeSignature(wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue signature"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// SignatureMint is the admin raw message-mint issuance.
func (h *Handlers) SignatureMint(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	tokenID, ok := new(big.Int).SetString(c.Query("tokenId"), 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tokenId"})
		return
	}
	message := c.Query("message")
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing message"})
		return
	}

	res, err := h.badge.MintSignature(c.Request.Context(), wallet, tokenID, message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue signature"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// AllowlistIndex lists allowlisted wallets.
func (h *Handlers) AllowlistIndex(c *gin.Context) {
	wallets, err := h.allowlist.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list allowlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

type allowlistRequest struct {
	Wallets []string `json:"wallets" binding:"required,min=1"`
}

// AllowlistAdd bulk-adds wallets.
func (h *Handlers) AllowlistAdd(c *gin.Context) {
	var req allowlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	added, err := h.allowlist.Add(c.Request.Context(), req.Wallets)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// AllowlistRemove bulk-removes wallets.
func (h *Handlers) AllowlistRemove(c *gin.Context) {
	var req allowlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	removed, err := h.allowlist.Remove(c.Request.Context(), req.Wallets)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
