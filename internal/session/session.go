package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alquimia/consola/internal/domain/models"
)

// Session is the client's held credential, role and identity for the current
// login. The zero value means "not logged in".
type Session struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	UserID uint   `json:"id"`
}

// Active reports whether a credential is held.
func (s Session) Active() bool { return s.Token != "" }

// CanMutate is the single capability check shared by every resource view:
// only supervisors are offered create/update/remove/adjust controls. This is
// a UX gate, not a security boundary; the server re-checks every call.
func CanMutate(s Session) bool {
	return s.Active() && s.Role == string(models.RoleSupervisor)
}

// Store is the process-wide session holder. It persists the session to a JSON
// file so it survives between CLI invocations, and notifies subscribers on
// every change so views can react to logout or expiry.
type Store struct {
	path string

	mu      sync.RWMutex
	current Session
	subs    []func(Session)
}

// NewStore creates a store backed by the given file path. An existing file is
// loaded eagerly; a missing file just means no session yet.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &s.current); err != nil {
		// A corrupt session file is treated as logged out rather than fatal.
		s.current = Session{}
	}

	return s, nil
}

// Get returns the currently held session value.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the held session and persists it.
func (s *Store) Set(sess Session) error {
	s.mu.Lock()
	s.current = sess
	subs := append([]func(Session){}, s.subs...)
	s.mu.Unlock()

	if err := s.persist(sess); err != nil {
		return err
	}
	for _, fn := range subs {
		fn(sess)
	}
	return nil
}

// Clear destroys the session, both in memory and on disk.
func (s *Store) Clear() error {
	return s.Set(Session{})
}

// Subscribe registers a callback invoked after every session change. Views
// that must react to logout register here instead of polling.
func (s *Store) Subscribe(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Token implements the client's SessionSource.
func (s *Store) Token() string {
	return s.Get().Token
}

// Invalidate implements the client's SessionSource: called when the server
// rejects the credential, so stale tokens do not linger on disk.
func (s *Store) Invalidate() {
	_ = s.Clear()
}

func (s *Store) persist(sess Session) error {
	if !sess.Active() {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
