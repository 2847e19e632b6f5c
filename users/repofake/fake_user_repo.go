package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/tmcfarlane/google-login-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.Repo for tests, assigning sequential
// numeric IDs the way the Postgres repo's BIGSERIAL column does.
type FakeUserRepo struct {
	lock    sync.RWMutex
	byEmail map[string]*users.User
	nextID  int64
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		byEmail: make(map[string]*users.User),
		nextID:  1,
	}
}

func (r *FakeUserRepo) Upsert(_ context.Context, user *users.User) (*users.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored := *user
	if existing, ok := r.byEmail[user.Email]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		if stored.EmailVerified == nil {
			stored.EmailVerified = existing.EmailVerified
		}
	} else {
		stored.ID = r.nextID
		r.nextID++
	}
	r.byEmail[user.Email] = &stored

	copied := stored
	return &copied, nil
}

func (r *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}
