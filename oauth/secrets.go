package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// stateTokenLength is the number of random bytes in a CSRF state token.
// 32 bytes gives 256 bits of entropy and a 43-character base64url string,
// matching the minimum PKCE verifier length from RFC 7636.
const stateTokenLength = 32

// NewStateToken returns a cryptographically random base64url token used
// as the OAuth2 state parameter.
func NewStateToken() (string, error) {
	b := make([]byte, stateTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[NewStateToken] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
