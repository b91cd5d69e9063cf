package model

import "time"

// ClaimStatus tracks where a claimed deal sits in its lifecycle.
type ClaimStatus string

// Claim lifecycle states. Active is the only non-terminal state;
// redeemed, expired, and cancelled admit no further transitions.
const (
	ClaimStatusActive    ClaimStatus = "active"
	ClaimStatusRedeemed  ClaimStatus = "redeemed"
	ClaimStatusCancelled ClaimStatus = "cancelled"
	ClaimStatusExpired   ClaimStatus = "expired"
)

// IsTerminal reports whether no transition is defined out of s.
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case ClaimStatusRedeemed, ClaimStatusCancelled, ClaimStatusExpired:
		return true
	default:
		return false
	}
}

// Claim is a claimed deal owned by the backend; the client only ever
// holds a read-through cached copy. Every mutation is confirmed by a
// server round-trip before the local copy is updated.
type Claim struct {
	ID                string      `json:"_id"`
	DealID            string      `json:"deal_id"`
	DealTitle         string      `json:"deal_title,omitempty"`
	Status            ClaimStatus `json:"status"`
	ClaimedAt         time.Time   `json:"claimed_at"`
	ExpiresAt         time.Time   `json:"expires_at"`
	RedeemedAt        *time.Time  `json:"redeemed_at,omitempty"`
	PreferredDatetime *time.Time  `json:"preferred_datetime,omitempty"`
	QRCodeURL         string      `json:"qr_code_url,omitempty"`
}
