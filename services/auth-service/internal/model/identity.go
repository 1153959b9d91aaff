package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Identity maps a user to a way of signing in: local email/password or an OAuth provider.
type Identity struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	UserID      string        `bson:"user_id"`
	ProviderID  string        `bson:"provider_id"`
	Provider    string        `bson:"provider"`
	Email       string        `bson:"email"`
	LastLoginAt time.Time     `bson:"last_login_at"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

// IdentityProviderEmail marks identities created by email registration.
const IdentityProviderEmail = "email"
