// Package viewer describes the authenticated user a request is made on behalf of.
//
// The viewer is optional: requests that were never authenticated carry none, and
// every reader has to handle that case. Populating it is the job of an
// [Authenticator] supplied by the caller; this package never decides who a user is.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingID is returned when a user is present but has no identifier.
	ErrMissingID = errors.New("viewer: user is missing an id")
	// ErrMissingField is returned when a decoded user leaves out a nullable key.
	ErrMissingField = errors.New("viewer: user is missing a field")
)

// User is the authenticated user attached to a request.
//
// Once a User is present, ID is always set. Email and DisplayName are nullable
// and serialize as JSON null when unset.
type User struct {
	ID          string  `json:"id"`
	Email       *string `json:"email"`
	DisplayName *string `json:"displayName"`
}

// New builds a user.
func New(id string, email, displayName *string) User {
	return User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
	}
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Validate reports whether the user has the shape downstream handlers rely on.
func (u User) Validate() error {
	if u.ID == "" {
		return ErrMissingID
	}
	return nil
}

// EmailOr returns the email, or fallback when it's null.
func (u User) EmailOr(fallback string) string {
	if u.Email == nil {
		return fallback
	}
	return *u.Email
}

// DisplayNameOr returns the display name, or fallback when it's null.
func (u User) DisplayNameOr(fallback string) string {
	if u.DisplayName == nil {
		return fallback
	}
	return *u.DisplayName
}

// Name is the best human readable label: display name, then email, then id.
func (u User) Name() string {
	return u.DisplayNameOr(u.EmailOr(u.ID))
}

func (u *User) UnmarshalJSON(byts []byte) error {
	if string(byts) == "null" {
		return nil
	}

	// Alias drops the method set so this doesn't recurse.
	type alias User
	var a alias
	if err := json.Unmarshal(byts, &a); err != nil {
		return err
	}
	if err := User(a).Validate(); err != nil {
		return fmt.Errorf("error decoding viewer: %w", err)
	}

	// Nullable keys must still be present, as null when unset.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(byts, &keys); err != nil {
		return err
	}
	for _, key := range []string{"email", "displayName"} {
		if _, ok := keys[key]; !ok {
			return fmt.Errorf("error decoding viewer: %q: %w", key, ErrMissingField)
		}
	}

	*u = User(a)
	return nil
}

type contextKey struct{}

// WithUser attaches a copy of usr to the context.
//
// A nil usr leaves the context as it is, so the viewer stays unset.
func WithUser(ctx context.Context, usr *User) context.Context {
	if usr == nil {
		return ctx
	}

	cp := *usr
	return context.WithValue(ctx, contextKey{}, &cp)
}

// FromContext returns the viewer attached to the context, if any.
//
// The returned user is a copy; changing it has no effect on the context.
func FromContext(ctx context.Context) (*User, bool) {
	usr, ok := ctx.Value(contextKey{}).(*User)
	if !ok || usr == nil {
		return nil, false
	}

	cp := *usr
	return &cp, true
}

// Authenticator is implemented by whatever establishes identity upstream of
// the handlers.
//
// It returns (nil, nil) when the request is anonymous, and an error when
// credentials were presented and rejected.
type Authenticator interface {
	Authenticate(r *http.Request) (*User, error)
}

// AuthenticatorFunc adapts a function into an [Authenticator].
type AuthenticatorFunc func(r *http.Request) (*User, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (*User, error) {
	return f(r)
}
