package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quotly/backend/internal/identity"
)

// ErrInvalidSession indicates a token that failed signature or structural
// verification. It is always surfaced as an authentication failure.
var ErrInvalidSession = errors.New("session: invalid token")

var errMissingSigningSecret = errors.New("session: signing secret must be provided")

// Codec packs a provider access response into a signed HS256 token and
// recovers it on every authenticated request. The codec adds no expiry claim
// of its own; the embedded credential is validated lazily by the provider.
type Codec struct {
	signingSecret []byte
}

type sessionClaims struct {
	identity.AccessResponse
	jwt.RegisteredClaims
}

// NewCodec constructs a Codec with the server-held symmetric key.
func NewCodec(signingSecret []byte) (*Codec, error) {
	if len(signingSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	return &Codec{signingSecret: signingSecret}, nil
}

// Issue serializes and signs the access response. Pure transform, no clock.
func (c *Codec) Issue(access identity.AccessResponse) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{AccessResponse: access})
	signed, err := token.SignedString(c.signingSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks signature integrity and recovers the embedded access
// response. It fails closed on any tampering or malformed structure.
func (c *Codec) Verify(tokenString string) (identity.AccessResponse, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return c.signingSecret, nil
		},
	)
	if err != nil {
		return identity.AccessResponse{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.AccessToken == "" {
		return identity.AccessResponse{}, fmt.Errorf("%w: missing access token", ErrInvalidSession)
	}
	return claims.AccessResponse, nil
}
