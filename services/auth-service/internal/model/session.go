package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Session records one successful login. Expired sessions are dropped by a TTL index.
type Session struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	TargetUI  string        `bson:"target_ui"`
	IPAddress *string       `bson:"ip_address"`
	UserAgent *string       `bson:"user_agent"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}
