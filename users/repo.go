package users

import "context"

// Repo persists users keyed by email. Implementations must treat Upsert
// as insert-or-update: repeated logins with the same email update the
// existing record rather than creating a new one.
type Repo interface {
	// Upsert stores the user, matching on email, and returns the stored
	// record with its assigned ID and original creation time.
	Upsert(ctx context.Context, user *User) (*User, error)

	// GetByEmail retrieves a user by email, or (nil, nil) when absent.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
