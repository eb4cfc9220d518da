// Package strategies implements the credential verification strategies.
// Each strategy takes a credential assertion and yields the canonical user
// or a verification failure; the gateway picks the strategy that matches
// the assertion's shape.
package strategies

import (
	"context"

	"github.com/avoronov/secretwall/internal/server/models"
)

// Assertion is a claim of identity presented for verification. The variant
// set is closed: LocalAssertion and FederatedAssertion.
type Assertion interface {
	assertion()
}

// LocalAssertion carries username/password credentials.
type LocalAssertion struct {
	Username string
	Password string
}

func (LocalAssertion) assertion() {}

// FederatedAssertion carries the raw signed ID token from the provider
// callback. It is validated before any store access.
type FederatedAssertion struct {
	IDToken string
}

func (FederatedAssertion) assertion() {}

// Strategy verifies one kind of assertion.
//
// Failure reasons are the sentinel errors in internal/common
// (ErrNotFound, ErrInvalidCredentials, ErrProviderAssertion); anything
// else is a storage failure.
type Strategy interface {
	Authenticate(ctx context.Context, assertion Assertion) (*models.User, error)
}
