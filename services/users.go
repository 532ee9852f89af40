package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"strings"

	"github.com/clipstream/backend/errs"
	"github.com/clipstream/backend/models"
	"github.com/clipstream/backend/store"
	"github.com/clipstream/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserService covers the profile reads and writes outside the session
// lifecycle: current user, account/avatar/cover updates, the channel profile
// aggregation and the subscription toggle feeding it.
type UserService struct {
	store    store.UserStore
	uploader ImageUploader
}

func NewUserService(st store.UserStore, up ImageUploader) *UserService {
	return &UserService{store: st, uploader: up}
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.Auth("unauthorized request")
		}
		return nil, errs.Internal("user lookup failed")
	}
	out := user.Sanitized()
	return &out, nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, errs.Validation("fullName and email are required")
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.UpdateAccount(ctx, id, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, errs.Auth("unauthorized request")
		case errors.Is(err, store.ErrDuplicate):
			return nil, errs.Conflict("email already in use")
		}
		return nil, errs.Internal("failed to update account")
	}
	out := user.Sanitized()
	return &out, nil
}

// UpdateAvatar uploads the replacement first, then swaps the record, then
// best-effort deletes the replaced object.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, fh *multipart.FileHeader) (*models.User, error) {
	return s.updateImage(ctx, userID, fh, "avatars",
		func(u *models.User) string { return u.Avatar },
		s.store.SetAvatar)
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, fh *multipart.FileHeader) (*models.User, error) {
	return s.updateImage(ctx, userID, fh, "covers",
		func(u *models.User) string { return u.CoverImage },
		s.store.SetCoverImage)
}

func (s *UserService) updateImage(
	ctx context.Context,
	userID string,
	fh *multipart.FileHeader,
	folder string,
	current func(*models.User) string,
	set func(context.Context, bson.ObjectID, string) (*models.User, error),
) (*models.User, error) {
	if fh == nil {
		return nil, errs.Validation("image file is missing")
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.Auth("unauthorized request")
		}
		return nil, errs.Internal("user lookup failed")
	}
	oldURL := current(user)

	newURL, err := s.uploader.Upload(ctx, folder, fh)
	if err != nil || newURL == "" {
		return nil, errs.Upload("image was not uploaded")
	}

	updated, err := set(ctx, id, newURL)
	if err != nil {
		return nil, errs.Internal("failed to update image")
	}

	if oldURL != "" {
		if err := s.uploader.Delete(ctx, oldURL); err != nil {
			log.Printf("failed to delete replaced image %s: %v", oldURL, err)
		}
	}

	out := updated.Sanitized()
	return &out, nil
}

// ChannelProfile returns the public profile with subscriber counts and, when
// a viewer is known, whether the viewer subscribes to the channel.
func (s *UserService) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	username = utils.NormalizeUsername(username)
	if username == "" {
		return nil, errs.Validation("username is missing")
	}

	var viewer *bson.ObjectID
	if viewerID != "" {
		if id, err := bson.ObjectIDFromHex(viewerID); err == nil {
			viewer = &id
		}
	}

	profile, err := s.store.ChannelProfile(ctx, username, viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound("channel does not exist")
		}
		return nil, errs.Internal("channel lookup failed")
	}
	return profile, nil
}

// ToggleSubscription flips the caller's subscription edge to the named
// channel and reports the resulting state.
func (s *UserService) ToggleSubscription(ctx context.Context, userID, channelUsername string) (bool, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return false, err
	}

	channel, err := s.store.FindByUsername(ctx, utils.NormalizeUsername(channelUsername))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, errs.NotFound("channel does not exist")
		}
		return false, errs.Internal("channel lookup failed")
	}
	if channel.ID == id {
		return false, errs.Validation("cannot subscribe to your own channel")
	}

	subscribed, err := s.store.ToggleSubscription(ctx, id, channel.ID)
	if err != nil {
		return false, errs.Internal("failed to toggle subscription")
	}
	return subscribed, nil
}
