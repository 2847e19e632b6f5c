package sessions

import (
	"context"

	"github.com/google/uuid"
)

// Store is an opaque key-value session store. Identifiers are generated
// by the store, never by the caller; the cookie handed to the client
// carries only the identifier. Load returns (nil, nil) for an absent
// entry and may return expired entries - expiry is the caller's check.
// Destroy is idempotent: destroying an unknown id is not an error.
type Store interface {
	Create(ctx context.Context, data Data) (string, error)
	Load(ctx context.Context, id string) (*Data, error)
	Destroy(ctx context.Context, id string) error
}

func newSessionID() string {
	return uuid.NewString()
}
