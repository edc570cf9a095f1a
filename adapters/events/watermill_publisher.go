package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/youmio/testnet-gateway/ports"
)

const (
	TopicLogout    = "gateway.session.logout"
	TopicClaim     = "gateway.faucet.claim"
	TopicAllowlist = "gateway.allowlist.change"
)

// LogoutEvent notifies other instances that a session was closed.
type LogoutEvent struct {
	Address   string `json:"address"`
	SessionID string `json:"session_id"`
}

// ClaimEvent records a successful faucet claim.
type ClaimEvent struct {
	Address string `json:"address"`
}

// AllowlistEvent records a bulk allowlist change.
type AllowlistEvent struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, sessionID string) error {
	return p.publish(TopicLogout, LogoutEvent{Address: address, SessionID: sessionID})
}

// PublishFaucetClaim publishes a faucet claim event.
func (p *WatermillPublisher) PublishFaucetClaim(ctx context.Context, address string) error {
	return p.publish(TopicClaim, ClaimEvent{Address: address})
}

// PublishAllowlistChange publishes a bulk membership change event.
func (p *WatermillPublisher) PublishAllowlistChange(ctx context.Context, added, removed []string) error {
	return p.publish(TopicAllowlist, AllowlistEvent{Added: added, Removed: removed})
}
