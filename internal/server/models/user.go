package models

import "time"

// User is the identity record. An account carries local credentials
// (Username + PasswordHash/PasswordSalt), a federated identity
// (FederatedID), or both. Hybrid accounts are permitted but never created
// by the authentication flows themselves.
type User struct {
	// ID is assigned by the store on creation and never changes.
	ID string

	// Username is unique among users that have one. Empty for accounts
	// created through a federated login.
	Username string

	// PasswordHash and PasswordSalt are set only for local accounts.
	PasswordHash []byte
	PasswordSalt []byte

	// FederatedID is the provider-scoped user identifier, unique among
	// users that have one.
	FederatedID string

	// Secret is the user's submitted secret, empty until they post one.
	Secret string

	CreatedAt time.Time
}

// IsLocal reports whether the account can authenticate with a password.
func (u *User) IsLocal() bool {
	return u.Username != "" && len(u.PasswordHash) > 0
}

// HasSecret reports whether the user has submitted a secret.
func (u *User) HasSecret() bool {
	return u.Secret != ""
}
