package model

import "time"

// OAuthState is a pending authorization request. It is consumed exactly once
// by the callback or expires unconsumed.
type OAuthState struct {
	State        string    `bson:"state"         json:"state"`
	CodeVerifier string    `bson:"code_verifier" json:"code_verifier"`
	Provider     string    `bson:"provider"      json:"provider"`
	CreatedAt    time.Time `bson:"created_at"    json:"created_at"`
}

// Expired reports whether the record is older than ttl at now.
func (s *OAuthState) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(s.CreatedAt.Add(ttl))
}
