package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/youmio/testnet-gateway/adapters/chain"
	"github.com/youmio/testnet-gateway/adapters/chat"
	"github.com/youmio/testnet-gateway/adapters/events"
	"github.com/youmio/testnet-gateway/adapters/store"
	"github.com/youmio/testnet-gateway/config"
	"github.com/youmio/testnet-gateway/internal/eth"
	"github.com/youmio/testnet-gateway/service"
	transport "github.com/youmio/testnet-gateway/transport/http"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(cfg.Debug, false),
	)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	// The config loader already validated every key, so these cannot
	// fail here.
	sbtKey, _ := cfg.SBTAuthKey()
	messageKey, _ := cfg.MessageAuthKey()
	faucetKey, _ := cfg.FaucetKey()
	cipherKey, _ := cfg.MessageEncryptionKey()
	amount, _ := cfg.FaucetAmountWei()

	ethChain, err := chain.NewEthChain(
		cfg.Chain.RPCURL,
		cfg.Chain.ID,
		common.HexToAddress(cfg.SBT.Contract),
		common.HexToAddress(cfg.Faucet.Contract),
		faucetKey,
	)
	if err != nil {
		return fmt.Errorf("failed to create chain client: %w", err)
	}

	kv := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)
	model := chat.NewOpenAIClient(chat.OpenAIConfig{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.Model,
	})

	domain := eth.Domain{
		Name:              cfg.SBT.Name,
		Version:           cfg.SBT.Version,
		ChainID:           cfg.Chain.ID,
		VerifyingContract: common.HexToAddress(cfg.SBT.Contract),
	}

	authService := service.NewAuthService(kv, eventPub, challengeDomain(cfg.Origin), cfg.Chain.ID, cfg.ChallengeTTL(), cfg.SessionTTL())
	faucetService := service.NewFaucetService(kv, ethChain, eventPub, amount, cfg.FaucetCooldown())
	chatService := service.NewChatService(kv, ethChain, model, cfg.Chat.Limit, cfg.ChatCooldown())
	badgeService := service.NewBadgeService(kv, ethChain, domain, sbtKey, messageKey, cipherKey)
	allowlistService := service.NewAllowlistService(kv, eventPub)

	handlers := transport.NewHandlers(authService, faucetService, chatService, badgeService, allowlistService)
	router := transport.NewRouter(transport.RouterConfig{
		Debug:      cfg.Debug,
		Origin:     cfg.Origin,
		AdminToken: cfg.AdminBearerToken,
	}, handlers, transport.SessionMiddleware(authService))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// challengeDomain extracts the host from the configured frontend origin
// so sign-in challenges name the site users actually see.
func challengeDomain(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}
