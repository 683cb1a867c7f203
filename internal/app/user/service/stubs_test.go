package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	authErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/google/uuid"
)

type userRepoStub struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	calls int

	createErr error
	fetchErr  error
	updateErr error
	updates   int

	// beforeGet runs outside the lock at the start of GetUserByID.
	beforeGet func()
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[uuid.UUID]model.User)}
}

func (u *userRepoStub) CreateUser(ctx context.Context, m model.User) (uuid.UUID, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.createErr != nil {
		return uuid.Nil, u.createErr
	}
	for _, v := range u.users {
		if v.Username == m.Username || v.Email == m.Email {
			return uuid.Nil, authErrors.ErrAlreadyExists
		}
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	if u.beforeGet != nil {
		u.beforeGet()
	}
	return u.lookup(id)
}

func (u *userRepoStub) lookup(id uuid.UUID) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	v, ok := u.users[id]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	return v, nil
}

func (u *userRepoStub) GetSanitizedUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	if u.fetchErr != nil {
		return model.User{}, u.fetchErr
	}
	v, err := u.lookup(id)
	if err != nil {
		return model.User{}, err
	}
	return v.Sanitized(), nil
}

func (u *userRepoStub) FindByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	for _, v := range u.users {
		if (username != "" && v.Username == username) || (email != "" && v.Email == email) {
			return v, nil
		}
	}
	return model.User{}, authErrors.ErrNotFound
}

func (u *userRepoStub) UpdateUser(ctx context.Context, m model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.updates++
	if u.updateErr != nil {
		return u.updateErr
	}
	if err := m.Validate(); err != nil {
		return authErrors.NewInvalidArgument(err.Error())
	}
	if _, ok := u.users[m.ID]; !ok {
		return authErrors.ErrNotFound
	}
	u.users[m.ID] = m
	return nil
}

func (u *userRepoStub) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.updates++
	if u.updateErr != nil {
		return u.updateErr
	}
	v, ok := u.users[id]
	if !ok || v.RefreshToken == nil || *v.RefreshToken != old {
		return authErrors.ErrInvalidToken
	}
	v.RefreshToken = &next
	u.users[id] = v
	return nil
}

func (u *userRepoStub) Ping(ctx context.Context) error { return nil }

func (u *userRepoStub) updateCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.updates
}

func (u *userRepoStub) storedRefresh(id uuid.UUID) *string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.users[id].RefreshToken
}

type tokenRepoStub struct{ revoked map[string]time.Time }

func (t *tokenRepoStub) RevokeAccess(ctx context.Context, jti string, exp time.Time) error {
	t.revoked[jti] = exp
	return nil
}

func (t *tokenRepoStub) IsAccessRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := t.revoked[jti]
	return ok, nil
}

func (t *tokenRepoStub) Ping(ctx context.Context) error { return nil }

type mediaStub struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	failPaths map[string]bool
	deleteErr error
}

func newMediaStub() *mediaStub {
	return &mediaStub{failPaths: make(map[string]bool)}
}

func (m *mediaStub) Upload(ctx context.Context, localPath string) (model.MediaResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, localPath)
	if m.failPaths[localPath] {
		return model.MediaResult{}, errors.New("cdn unavailable")
	}
	id := "media/" + strings.TrimPrefix(localPath, "/tmp/")
	return model.MediaResult{URL: "https://cdn.example.com/" + id, PublicID: id}, nil
}

func (m *mediaStub) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, publicID)
	return m.deleteErr
}

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (fakeHasher) Compare(p, h string) (bool, error) { return h == "hashed:"+p, nil }
