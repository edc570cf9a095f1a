package core

// WalletRecord tracks per-wallet entitlement state. Presence of a record
// in the store is allowlist membership; records are created and removed
// only through the administrative allowlist operations.
type WalletRecord struct {
	Address string `json:"address"`

	// Chat quota. MessageCount never exceeds the configured limit
	// without a window rollover; LastMessageReset marks the start of
	// the current window in epoch seconds.
	MessageCount     uint  `json:"messageCount"`
	LastMessageReset int64 `json:"lastMessageReset"`

	// Faucet cooldown, epoch seconds of the last successful claim.
	LastClaimed int64 `json:"lastClaimed"`

	AddedAt int64 `json:"addedAt"`
}

// MessageData is an encrypted chat message committed on chain by its
// keccak hash. The plaintext never reaches the store.
type MessageData struct {
	EncryptedMessage string `json:"encryptedMessage"`
	IV               string `json:"iv"`
	Owner            string `json:"owner"`
	Minted           bool   `json:"minted"`
	MintedAt         int64  `json:"mintedAt,omitempty"`
}
