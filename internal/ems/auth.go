package ems

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrMissingCredentials = errors.New("username and password are required")

// Login drops any existing session, exchanges the credentials for a new one
// and stores it in holder.
func Login(ctx context.Context, api API, holder *Holder, username, password string) (*Session, error) {
	if err := holder.Clear(); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	s, err := api.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", username, err)
	}
	if s.Username == "" {
		s.Username = username
	}
	if err := holder.Set(*s); err != nil {
		return nil, err
	}
	return holder.User(), nil
}

// Logout clears the session. Logging out while logged out is a no-op.
func Logout(holder *Holder) error {
	return holder.Clear()
}
