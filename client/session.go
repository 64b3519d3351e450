package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/gcOssi/spark6/internal/models"
)

// session is the on-disk shape of a saved login, the file-based analog of
// the web frontend's localStorage entry.
type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Restore loads a previously saved session and re-validates it against the
// server, as the frontend does on startup. It reports whether a valid
// session is now active; a stale or rejected session is removed and
// reported as false without error.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	if c.sessionPath == "" {
		return false, nil
	}

	raw, err := os.ReadFile(c.sessionPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var s session
	if err := json.Unmarshal(raw, &s); err != nil || s.Token == "" {
		c.clearSession()
		return false, nil
	}

	c.token = s.Token
	c.user = &s.User

	if _, err := c.Me(ctx); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) setSession(token string, user models.User) {
	c.token = token
	c.user = &user
	c.saveSession()
}

func (c *Client) saveSession() {
	if c.sessionPath == "" || c.token == "" {
		return
	}
	s := session{Token: c.token}
	if c.user != nil {
		s.User = *c.user
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return
	}
	// Best effort: a failed save only costs the next Restore.
	_ = os.WriteFile(c.sessionPath, raw, 0o600)
}

func (c *Client) clearSession() {
	c.token = ""
	c.user = nil
	if c.sessionPath != "" {
		_ = os.Remove(c.sessionPath)
	}
}
