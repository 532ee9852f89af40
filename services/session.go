package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/clipstream/backend/errs"
	"github.com/clipstream/backend/models"
	"github.com/clipstream/backend/store"
	"github.com/clipstream/backend/token"
	"github.com/clipstream/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ImageUploader is the media-host boundary. Upload streams a multipart file
// and returns its public URL; Delete removes a previously uploaded object by
// that URL.
type ImageUploader interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionService owns the session lifecycle: credential verification,
// dual-token issuance, refresh rotation and invalidation. At most one live
// refresh token exists per user; issuing a new one revokes the previous.
type SessionService struct {
	store    store.UserStore
	tokens   *token.Manager
	uploader ImageUploader
}

func NewSessionService(st store.UserStore, tm *token.Manager, up ImageUploader) *SessionService {
	return &SessionService{store: st, tokens: tm, uploader: up}
}

type RegisterInput struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *multipart.FileHeader
	CoverImage *multipart.FileHeader
}

// Register creates the user record last, after the uniqueness check and the
// mandatory avatar upload, so a failed upload never leaves an orphaned
// account. A failed cover upload is tolerated.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, TokenPair, error) {
	fullName := strings.TrimSpace(in.FullName)
	username := utils.NormalizeUsername(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if fullName == "" || username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, TokenPair{}, errs.Validation("all fields are required")
	}
	if in.Avatar == nil {
		return nil, TokenPair{}, errs.Validation("avatar image is required")
	}

	if _, err := s.store.FindByIdentity(ctx, username, email); err == nil {
		return nil, TokenPair{}, errs.Conflict("user with username or email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, TokenPair{}, errs.Internal("user lookup failed")
	}

	avatarURL, err := s.uploader.Upload(ctx, "avatars", in.Avatar)
	if err != nil || avatarURL == "" {
		return nil, TokenPair{}, errs.Upload("avatar image was not uploaded")
	}

	coverURL := ""
	if in.CoverImage != nil {
		u, err := s.uploader.Upload(ctx, "covers", in.CoverImage)
		if err != nil {
			log.Printf("cover image upload failed, registering without it: %v", err)
		} else {
			coverURL = u
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, errs.Internal("failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           bson.NewObjectID(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, TokenPair{}, errs.Conflict("user with username or email already exists")
		}
		return nil, TokenPair{}, errs.Internal("failed to create user")
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	out := user.Sanitized()
	return &out, pair, nil
}

// Login verifies credentials and rotates the stored refresh token, which
// immediately revokes any prior session. Unknown identity and wrong password
// are indistinguishable in the result.
func (s *SessionService) Login(ctx context.Context, username, email, password string) (*models.User, TokenPair, error) {
	username = utils.NormalizeUsername(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return nil, TokenPair{}, errs.Validation("username or email is required")
	}

	user, err := s.store.FindByIdentity(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, TokenPair{}, errs.Auth("invalid credentials")
		}
		return nil, TokenPair{}, errs.Internal("user lookup failed")
	}

	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, errs.Auth("invalid credentials")
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	out := user.Sanitized()
	return &out, pair, nil
}

// Logout clears the stored refresh token. Calling it again is a no-op.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}
	if err := s.store.SetRefreshToken(ctx, id, ""); err != nil && !errors.Is(err, store.ErrNotFound) {
		return errs.Internal("failed to clear session")
	}
	return nil
}

// Refresh rotates the token pair. The presented token must verify as
// refresh-kind AND match the stored value exactly; the exact-match check is
// what makes logout and login-elsewhere effective before cryptographic
// expiry. The new refresh token is persisted before returning.
func (s *SessionService) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, errs.Auth("missing refresh token")
	}

	uid, err := s.tokens.Verify(presented, token.Refresh)
	if err != nil {
		log.Printf("refresh token rejected: %v", err)
		return TokenPair{}, errs.Auth("invalid refresh token")
	}

	id, err := parseUserID(uid)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, errs.Auth("unauthorized request")
		}
		return TokenPair{}, errs.Internal("user lookup failed")
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return TokenPair{}, errs.Auth("refresh token expired or revoked")
	}

	return s.issuePair(ctx, user.ID)
}

// ChangePassword requires both the old and the new password. The stored
// refresh token is left untouched.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return errs.Validation("old and new passwords are required")
	}

	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.Auth("unauthorized request")
		}
		return errs.Internal("user lookup failed")
	}

	if err := utils.CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return errs.Auth("old password is incorrect")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return errs.Internal("failed to hash password")
	}
	if err := s.store.SetPassword(ctx, id, hash); err != nil {
		return errs.Internal("failed to update password")
	}
	return nil
}

// issuePair mints both tokens and persists the refresh token, overwriting
// whatever was stored before.
func (s *SessionService) issuePair(ctx context.Context, id bson.ObjectID) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(id.Hex())
	if err != nil {
		return TokenPair{}, errs.Internal("failed to generate access token")
	}
	refresh, err := s.tokens.IssueRefresh(id.Hex())
	if err != nil {
		return TokenPair{}, errs.Internal("failed to generate refresh token")
	}
	if err := s.store.SetRefreshToken(ctx, id, refresh); err != nil {
		return TokenPair{}, errs.Internal("failed to persist refresh token")
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func parseUserID(userID string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return bson.ObjectID{}, errs.Auth("invalid auth context")
	}
	return id, nil
}
