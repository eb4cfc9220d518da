// Package auth validates the identity assertions produced by the federated
// provider handoff. The provider handshake itself happens elsewhere; by the
// time a callback reaches this server the provider has issued a signed ID
// token, and this package only checks the signature and expiry and extracts
// the provider-scoped user id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Assertion is a validated federated identity claim.
type Assertion struct {
	// ProviderUserID is the subject of the ID token: the user's unique
	// id at the provider.
	ProviderUserID string

	// Name is optional display-name profile data. It is never logged
	// and never stored by the authentication flows.
	Name string
}

// Claims is the expected shape of the provider's ID token.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Verifier validates raw ID tokens into Assertions.
type Verifier interface {
	Verify(rawToken string) (*Assertion, error)
}

// HMACVerifier validates HS256-signed ID tokens with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret []byte) *HMACVerifier {
	return &HMACVerifier{secret: secret}
}

// Verify parses and validates rawToken. Any signature, expiry, or subject
// problem is reported as common.ErrProviderAssertion; no store access ever
// happens on an unvalidated assertion.
func (v *HMACVerifier) Verify(rawToken string) (*Assertion, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrProviderAssertion, err)
	}
	if !token.Valid {
		return nil, common.ErrProviderAssertion
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrProviderAssertion, "missing subject")
	}

	return &Assertion{ProviderUserID: claims.Subject, Name: claims.Name}, nil
}

// MintToken signs an ID token for the given provider user id. Used by tests
// and by the development stub of the provider handoff.
func MintToken(providerUserID, name string, secret []byte, validity time.Duration) (string, error) {
	if providerUserID == "" {
		return "", errors.New("empty provider user id")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   providerUserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		Name: name,
	})

	return token.SignedString(secret)
}
