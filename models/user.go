package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	FullName     string        `bson:"fullName" json:"fullName"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	Avatar       string        `bson:"avatar" json:"avatar"`
	CoverImage   string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	RefreshToken string        `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Sanitized returns a copy safe to hand to transport: credential fields
// emptied, not just hidden by json tags.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}
