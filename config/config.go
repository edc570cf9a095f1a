package config

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the gateway configuration. Required secrets use the
// env "required" tag so a misconfigured process refuses to start
// instead of failing per request.
type Config struct {
	Debug  bool   `env:"DEBUG" envDefault:"false"`
	Port   int    `env:"PORT" envDefault:"8080"`
	Origin string `env:"ORIGIN" envDefault:"http://localhost:5173"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	Chain struct {
		ID     int64  `env:"CHAIN_ID" envDefault:"68854"`
		RPCURL string `env:"RPC_URL,required"`
	}

	SBT struct {
		Contract       string `env:"SBT_CONTRACT,required"`
		Name           string `env:"SBT_CONTRACT_NAME,required"`
		Version        string `env:"SBT_CONTRACT_VERSION,required"`
		AuthPrivateKey string `env:"SBT_AUTH_PRIVATE_KEY,required,unset"`
	}

	Message struct {
		AuthPrivateKey string `env:"MESSAGE_AUTH_PRIVATE_KEY,required,unset"`
		EncryptionKey  string `env:"MESSAGE_ENCRYPTION_KEY,required,unset"`
	}

	Faucet struct {
		Contract        string `env:"FAUCET_CONTRACT,required"`
		PrivateKey      string `env:"FAUCET_PRIVATE_KEY,required,unset"`
		Amount          string `env:"FAUCET_AMOUNT" envDefault:"10"`
		CooldownSeconds int64  `env:"FAUCET_COOLDOWN_SECONDS" envDefault:"86400"`
	}

	Chat struct {
		Limit           uint  `env:"CHAT_LIMIT" envDefault:"10"`
		CooldownSeconds int64 `env:"CHAT_COOLDOWN_SECONDS" envDefault:"86400"`
	}

	Session struct {
		TTLSeconds          int64 `env:"SESSION_TTL_SECONDS" envDefault:"86400"`
		ChallengeTTLSeconds int64 `env:"CHALLENGE_TTL_SECONDS" envDefault:"300"`
	}

	AdminBearerToken string `env:"ADMIN_BEARER_TOKEN,required,unset"`

	OpenAI struct {
		APIKey string `env:"OPENAI_API_KEY,required,unset"`
		Model  string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	}
}

// Load reads the environment into Config and validates every secret
// that has a parseable shape.
func Load() (*Config, error) {
	// A missing .env file is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if !common.IsHexAddress(cfg.SBT.Contract) {
		return nil, fmt.Errorf("SBT_CONTRACT is not a valid address")
	}
	if !common.IsHexAddress(cfg.Faucet.Contract) {
		return nil, fmt.Errorf("FAUCET_CONTRACT is not a valid address")
	}
	if _, err := cfg.SBTAuthKey(); err != nil {
		return nil, err
	}
	if _, err := cfg.MessageAuthKey(); err != nil {
		return nil, err
	}
	if _, err := cfg.FaucetKey(); err != nil {
		return nil, err
	}
	if _, err := cfg.MessageEncryptionKey(); err != nil {
		return nil, err
	}
	if _, err := cfg.FaucetAmountWei(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseKey(name, value string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid private key: %w", name, err)
	}
	return key, nil
}

// SBTAuthKey signs badge-claim agreements.
func (c *Config) SBTAuthKey() (*ecdsa.PrivateKey, error) {
	return parseKey("SBT_AUTH_PRIVATE_KEY", c.SBT.AuthPrivateKey)
}

// MessageAuthKey signs message-mint commitments. Kept separate from the
// badge key so one compromised key cannot mint the other action type.
func (c *Config) MessageAuthKey() (*ecdsa.PrivateKey, error) {
	return parseKey("MESSAGE_AUTH_PRIVATE_KEY", c.Message.AuthPrivateKey)
}

// FaucetKey signs the faucet mintNativeCoin transaction.
func (c *Config) FaucetKey() (*ecdsa.PrivateKey, error) {
	return parseKey("FAUCET_PRIVATE_KEY", c.Faucet.PrivateKey)
}

// MessageEncryptionKey is the AES-256-GCM key for stored chat messages.
func (c *Config) MessageEncryptionKey() ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimPrefix(c.Message.EncryptionKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("MESSAGE_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("MESSAGE_ENCRYPTION_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// FaucetAmountWei converts the configured whole-token grant to wei.
func (c *Config) FaucetAmountWei() (*big.Int, error) {
	amount, err := decimal.NewFromString(c.Faucet.Amount)
	if err != nil {
		return nil, fmt.Errorf("FAUCET_AMOUNT is not a valid decimal: %w", err)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("FAUCET_AMOUNT must be positive")
	}
	return amount.Shift(18).BigInt(), nil
}

// FaucetCooldown returns the faucet cooldown window.
func (c *Config) FaucetCooldown() time.Duration {
	return time.Duration(c.Faucet.CooldownSeconds) * time.Second
}

// ChatCooldown returns the chat quota window.
func (c *Config) ChatCooldown() time.Duration {
	return time.Duration(c.Chat.CooldownSeconds) * time.Second
}

// SessionTTL returns how long a session stays resolvable.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// ChallengeTTL returns how long an issued challenge nonce stays valid.
func (c *Config) ChallengeTTL() time.Duration {
	return time.Duration(c.Session.ChallengeTTLSeconds) * time.Second
}
