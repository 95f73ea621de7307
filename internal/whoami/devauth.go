package whoami

import (
	"net/http"

	"github.com/jdholdren/viewer/internal/viewer"
)

// DevAuthenticator attaches the same configured user to every request.
//
// For local development only: it checks no credentials. With no user
// configured, every request is anonymous.
type DevAuthenticator struct {
	User *viewer.User
}

// NewDevAuthenticator builds the authenticator from config values. An empty id
// means "no dev user".
func NewDevAuthenticator(id, email, displayName string) DevAuthenticator {
	if id == "" {
		return DevAuthenticator{}
	}

	usr := viewer.New(id, viewer.String(email), viewer.String(displayName))
	return DevAuthenticator{User: &usr}
}

func (d DevAuthenticator) Authenticate(_ *http.Request) (*viewer.User, error) {
	if d.User == nil {
		return nil, nil
	}

	usr := *d.User
	return &usr, nil
}
