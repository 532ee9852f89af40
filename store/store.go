package store

import (
	"context"
	"errors"

	"github.com/clipstream/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrNotFound  = errors.New("no such user")
	ErrDuplicate = errors.New("username or email already taken")
)

// UserStore is the persistence boundary for users and subscription edges.
// Update methods are last-write-wins; the store is the serialization point
// for concurrent logins and refreshes.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	// FindByIdentity matches on username or email; empty arguments are
	// ignored rather than matched.
	FindByIdentity(ctx context.Context, username, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	SetRefreshToken(ctx context.Context, id bson.ObjectID, refreshToken string) error
	SetPassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
	UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (*models.User, error)
	SetAvatar(ctx context.Context, id bson.ObjectID, url string) (*models.User, error)
	SetCoverImage(ctx context.Context, id bson.ObjectID, url string) (*models.User, error)

	ChannelProfile(ctx context.Context, username string, viewer *bson.ObjectID) (*models.ChannelProfile, error)
	// ToggleSubscription flips the subscriber→channel edge and reports
	// whether it exists afterwards.
	ToggleSubscription(ctx context.Context, subscriber, channel bson.ObjectID) (bool, error)
}
