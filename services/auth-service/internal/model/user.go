package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an operator of the scanning console.
// PasswordHash is never serialised to JSON.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string        `bson:"email"         json:"email"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	FirstName    string        `bson:"fname"         json:"fname"`
	LastName     string        `bson:"lname"         json:"lname"`
	Org          string        `bson:"org"           json:"org"`
	Group        string        `bson:"group"         json:"group"`
	IsActive     bool          `bson:"is_active"     json:"isactive"`
	IsAdmin      bool          `bson:"is_admin"      json:"isadmin"`
	CreatedAt    time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updated_at"    json:"updatedAt"`
}
