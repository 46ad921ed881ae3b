// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// SessionFileName is the name of the session file under ConfigDir.
const SessionFileName = "session.toml"

var (
	// ErrNoSession is returned when no session file exists yet.
	ErrNoSession = errors.New("no session found")
	// ErrInvalidSession is the sentinel error wrapped by InvalidSessionError.
	ErrInvalidSession = errors.New("invalid session")
)

type (
	// Session holds the stored credentials for one AtMyApp project.
	// It is written by 'ama use' and read by every command that talks
	// to the platform.
	Session struct {
		// ProjectURL is the base URL of the project's API endpoint.
		ProjectURL string `toml:"project_url"`
		// Token is the project access token.
		Token string `toml:"token"`
		// CreatedAt records when the session was stored.
		CreatedAt time.Time `toml:"created_at"`
	}

	// InvalidSessionError is returned when a Session has invalid fields.
	// It wraps ErrInvalidSession for errors.Is() compatibility.
	InvalidSessionError struct {
		FieldErrors []error
	}
)

// IsValid returns whether the Session has a usable project URL and token.
func (s *Session) IsValid() (bool, []error) {
	var errs []error

	u, err := url.Parse(s.ProjectURL)
	switch {
	case strings.TrimSpace(s.ProjectURL) == "":
		errs = append(errs, fmt.Errorf("project URL is empty"))
	case err != nil:
		errs = append(errs, fmt.Errorf("project URL does not parse: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("project URL scheme %q is not http or https", u.Scheme))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("project URL has no host"))
	}

	if strings.TrimSpace(s.Token) == "" {
		errs = append(errs, fmt.Errorf("token is empty"))
	}

	if len(errs) > 0 {
		return false, []error{&InvalidSessionError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSessionError.
func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSession for errors.Is() compatibility.
func (e *InvalidSessionError) Unwrap() error { return ErrInvalidSession }

// SessionPath returns the location of the session file.
func SessionPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, SessionFileName), nil
}

// LoadSession reads the stored session. Returns ErrNoSession when no
// session file exists.
func LoadSession() (*Session, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}

	return &s, nil
}

// SaveSession validates and writes the session. The file is created with
// 0600 permissions since it holds an access token.
func SaveSession(s *Session) error {
	if valid, errs := s.IsValid(); !valid {
		return errs[0]
	}

	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := SessionPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// ClearSession removes the stored session. Removing a session that does
// not exist is not an error.
func ClearSession() error {
	path, err := SessionPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}
