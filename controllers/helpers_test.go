package controllers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/clipstream/backend/middleware"
	"github.com/clipstream/backend/models"
	"github.com/clipstream/backend/services"
	"github.com/clipstream/backend/store"
	"github.com/clipstream/backend/token"
	"github.com/clipstream/backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// pngSig is enough for http.DetectContentType to report image/png.
var pngSig = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type edge struct {
	subscriber bson.ObjectID
	channel    bson.ObjectID
}

type fakeStore struct {
	users map[bson.ObjectID]*models.User
	subs  map[edge]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[bson.ObjectID]*models.User{}, subs: map[edge]bool{}}
}

func (f *fakeStore) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) FindByIdentity(_ context.Context, username, email string) (*models.User, error) {
	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.FindByIdentity(context.Background(), username, "")
}

func (f *fakeStore) SetRefreshToken(_ context.Context, id bson.ObjectID, refreshToken string) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.RefreshToken = refreshToken
	return nil
}

func (f *fakeStore) SetPassword(_ context.Context, id bson.ObjectID, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeStore) UpdateAccount(_ context.Context, id bson.ObjectID, fullName, email string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.FullName = fullName
	u.Email = email
	cp := *u
	return &cp, nil
}

func (f *fakeStore) SetAvatar(_ context.Context, id bson.ObjectID, url string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Avatar = url
	cp := *u
	return &cp, nil
}

func (f *fakeStore) SetCoverImage(_ context.Context, id bson.ObjectID, url string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.CoverImage = url
	cp := *u
	return &cp, nil
}

func (f *fakeStore) ChannelProfile(_ context.Context, username string, viewer *bson.ObjectID) (*models.ChannelProfile, error) {
	for _, u := range f.users {
		if u.Username != username {
			continue
		}
		p := &models.ChannelProfile{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName, Avatar: u.Avatar}
		for e := range f.subs {
			if e.channel == u.ID {
				p.SubscriberCount++
				if viewer != nil && e.subscriber == *viewer {
					p.IsSubscribed = true
				}
			}
			if e.subscriber == u.ID {
				p.SubscribedToCount++
			}
		}
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ToggleSubscription(_ context.Context, subscriber, channel bson.ObjectID) (bool, error) {
	e := edge{subscriber: subscriber, channel: channel}
	if f.subs[e] {
		delete(f.subs, e)
		return false, nil
	}
	f.subs[e] = true
	return true, nil
}

type fakeUploader struct {
	seq int
}

func (f *fakeUploader) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	f.seq++
	return fmt.Sprintf("https://cdn.test/%s/%d-%s", folder, f.seq, fh.Filename), nil
}

func (f *fakeUploader) Delete(context.Context, string) error { return nil }

func setupRouter(t *testing.T) (*gin.Engine, *fakeStore, *token.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := newFakeStore()
	up := &fakeUploader{}
	tm := token.NewManager("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
	sessions := services.NewSessionService(st, tm, up)
	users := services.NewUserService(st, up)
	v := utils.NewImageValidator()

	r := gin.New()
	api := r.Group("/api/v1/users")
	{
		api.POST("/register", Register(sessions, v))
		api.POST("/login", Login(sessions))
		api.POST("/refresh-token", RefreshToken(sessions))
		api.GET("/c/:username", middleware.OptionalAuth(tm), GetChannelProfile(users))

		authed := api.Group("")
		authed.Use(middleware.RequireAuth(tm))
		{
			authed.POST("/logout", Logout(sessions))
			authed.POST("/change-password", ChangePassword(sessions))
			authed.GET("/me", GetCurrentUser(users))
			authed.PATCH("/me", UpdateAccount(users))
			authed.PATCH("/me/avatar", UpdateAvatar(users, v))
			authed.PATCH("/me/cover-image", UpdateCoverImage(users, v))
			authed.POST("/c/:username/subscribe", ToggleSubscription(users))
		}
	}
	return r, st, tm
}

func seedUser(t *testing.T, st *fakeStore, username, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		ID:           bson.NewObjectID(),
		Username:     username,
		Email:        username + "@x.com",
		FullName:     username,
		PasswordHash: hash,
		Avatar:       "https://cdn.test/avatars/" + username + ".png",
	}
	st.users[u.ID] = u
	return u
}

type multipartBody struct {
	buf *bytes.Buffer
	w   *multipart.Writer
}

func newMultipartBody() *multipartBody {
	buf := &bytes.Buffer{}
	return &multipartBody{buf: buf, w: multipart.NewWriter(buf)}
}

func (m *multipartBody) field(t *testing.T, name, value string) *multipartBody {
	t.Helper()
	require.NoError(t, m.w.WriteField(name, value))
	return m
}

func (m *multipartBody) file(t *testing.T, field, name string, content []byte) *multipartBody {
	t.Helper()
	fw, err := m.w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(content))
	require.NoError(t, err)
	return m
}

func (m *multipartBody) done(t *testing.T) (io.Reader, string) {
	t.Helper()
	require.NoError(t, m.w.Close())
	return m.buf, m.w.FormDataContentType()
}
