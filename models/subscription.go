package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscription is an edge: Subscriber follows Channel. Both sides are user
// ids; the pair is unique.
type Subscription struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    bson.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

// ChannelProfile is the aggregation result for a user viewed as a channel.
type ChannelProfile struct {
	ID                bson.ObjectID `bson:"_id" json:"id"`
	Username          string        `bson:"username" json:"username"`
	Email             string        `bson:"email" json:"email"`
	FullName          string        `bson:"fullName" json:"fullName"`
	Avatar            string        `bson:"avatar" json:"avatar"`
	CoverImage        string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	SubscriberCount   int64         `bson:"subscriberCount" json:"subscriberCount"`
	SubscribedToCount int64         `bson:"subscribedToCount" json:"subscribedToCount"`
	IsSubscribed      bool          `bson:"isSubscribed" json:"isSubscribed"`
}
