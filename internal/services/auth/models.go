package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account in the system. Admin marks directory
// administrators, who may share notes with any user or group.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username     string        `bson:"username" json:"username" example:"bob"`
	Email        string        `bson:"email" json:"email" example:"bob@example.com"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	Admin        bool          `bson:"admin" json:"-"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}
