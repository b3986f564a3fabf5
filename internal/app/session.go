package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/docwatch/internal/config"
	"github.com/five82/docwatch/internal/session"
)

// newSignIn resolves the configured credentials into a user. The token is
// re-read on every call so a refreshed token file takes effect on the next
// sign in. Without any token it returns docsops.ErrUnauthenticated.
func newSignIn(cfg config.Config, now func() time.Time) func() (*session.User, error) {
	return func() (*session.User, error) {
		token := strings.TrimSpace(cfg.Token)
		if token == "" {
			var err error
			if token, err = session.LoadToken(cfg.TokenFile); err != nil {
				return nil, err
			}
		}
		user, err := session.FromToken(token)
		if err != nil {
			return nil, err
		}
		if user.Expired(now()) {
			return nil, fmt.Errorf("token expired at %s", user.ExpiresAt.Format(time.RFC3339))
		}
		return user, nil
	}
}
