package core

import "time"

// Session represents an authenticated wallet session. Sessions are
// referenced by an opaque random identifier supplied in the x-session
// header and always resolve to the address bound at creation time.
type Session struct {
	ID       string    `json:"id"`
	Address  string    `json:"address"`
	IssuedAt time.Time `json:"issuedAt"`
}
