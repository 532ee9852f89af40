package store

import (
	"context"
	"errors"
	"time"

	"github.com/clipstream/backend/models"
	"github.com/clipstream/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoStore struct {
	users         *mongo.Collection
	subscriptions *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:         db.Collection("users"),
		subscriptions: db.Collection("subscriptions"),
	}
}

// EnsureIndexes creates the unique indexes uniqueness checks rely on:
// username, email, and the (subscriber, channel) edge pair.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}
	_, err = s.subscriptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if utils.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByIdentity(ctx context.Context, username, email string) (*models.User, error) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"$or": or})
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) SetRefreshToken(ctx context.Context, id bson.ObjectID, refreshToken string) error {
	if refreshToken == "" {
		return s.patch(ctx, id, bson.M{"$unset": bson.M{"refreshToken": ""}})
	}
	return s.patch(ctx, id, bson.M{"$set": bson.M{"refreshToken": refreshToken}})
}

func (s *MongoStore) SetPassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	return s.patch(ctx, id, bson.M{"$set": bson.M{
		"passwordHash": passwordHash,
		"updatedAt":    time.Now().UTC(),
	}})
}

func (s *MongoStore) patch(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := s.users.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (*models.User, error) {
	return s.findOneAndPatch(ctx, id, bson.M{"$set": bson.M{
		"fullName":  fullName,
		"email":     email,
		"updatedAt": time.Now().UTC(),
	}})
}

func (s *MongoStore) SetAvatar(ctx context.Context, id bson.ObjectID, url string) (*models.User, error) {
	return s.findOneAndPatch(ctx, id, bson.M{"$set": bson.M{
		"avatar":    url,
		"updatedAt": time.Now().UTC(),
	}})
}

func (s *MongoStore) SetCoverImage(ctx context.Context, id bson.ObjectID, url string) (*models.User, error) {
	return s.findOneAndPatch(ctx, id, bson.M{"$set": bson.M{
		"coverImage": url,
		"updatedAt":  time.Now().UTC(),
	}})
}

func (s *MongoStore) findOneAndPatch(ctx context.Context, id bson.ObjectID, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if utils.IsDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

// ChannelProfile joins the user with its subscription edges in one
// aggregation: edges pointing at the user are subscribers, edges leaving the
// user are channels it follows, and the viewer (when present) is looked up
// among the subscriber side.
func (s *MongoStore) ChannelProfile(ctx context.Context, username string, viewer *bson.ObjectID) (*models.ChannelProfile, error) {
	isSubscribed := any(false)
	if viewer != nil {
		isSubscribed = bson.M{"$cond": bson.M{
			"if":   bson.M{"$in": bson.A{*viewer, "$subscribers.subscriber"}},
			"then": true,
			"else": false,
		}}
	}

	pipeline := []bson.M{
		{"$match": bson.M{"username": username}},
		{"$lookup": bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}},
		{"$lookup": bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}},
		{"$addFields": bson.M{
			"subscriberCount":   bson.M{"$size": "$subscribers"},
			"subscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed":      isSubscribed,
		}},
		{"$project": bson.M{
			"username":          1,
			"email":             1,
			"fullName":          1,
			"avatar":            1,
			"coverImage":        1,
			"subscriberCount":   1,
			"subscribedToCount": 1,
			"isSubscribed":      1,
		}},
	}

	cursor, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ChannelProfile
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}

func (s *MongoStore) ToggleSubscription(ctx context.Context, subscriber, channel bson.ObjectID) (bool, error) {
	filter := bson.M{"subscriber": subscriber, "channel": channel}

	err := s.subscriptions.FindOneAndDelete(ctx, filter).Err()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, err
	}

	_, err = s.subscriptions.InsertOne(ctx, models.Subscription{
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		// concurrent toggle already inserted the edge
		if utils.IsDuplicateKey(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}
