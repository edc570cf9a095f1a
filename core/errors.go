package core

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidChallenge    = errors.New("invalid challenge")
	ErrNotAllowlisted      = errors.New("wallet not allowlisted")
	ErrInsufficientBalance = errors.New("badge required")
	ErrOnCooldown          = errors.New("action on cooldown")
	ErrAlreadyClaimed      = errors.New("badge already held")
	ErrQuotaExhausted      = errors.New("message quota exhausted")
	ErrUpstreamFailure     = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
)
