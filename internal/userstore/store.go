package userstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jfelder/gatekeep-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const usersFileName = "users.json"

// ErrUsernameTaken is returned by AddUser on a case-insensitive collision.
var ErrUsernameTaken = errors.New("username already exists")

// Store owns the user directory and its backing users.json file. The
// in-memory map is loaded once at construction; every mutation rewrites the
// full record set to disk before returning, so callers only ever observe
// persisted state.
type Store struct {
	mu     sync.RWMutex
	path   string
	users  map[string]models.User // keyed by lowercase username
	nextID int
}

// New loads the directory found under configRoot. A missing root directory
// is a configuration error; a missing or unreadable users file is not — the
// store starts empty, which is the expected state of a fresh installation.
func New(configRoot string) (*Store, error) {
	info, err := os.Stat(configRoot)
	if err != nil {
		return nil, fmt.Errorf("config root %q: %w", configRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config root %q is not a directory", configRoot)
	}

	s := &Store{
		path:   filepath.Join(configRoot, usersFileName),
		users:  make(map[string]models.User),
		nextID: 1,
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", s.path).Msg("Users file not found, initializing an empty directory")
		} else {
			log.Warn().Err(err).Str("path", s.path).Msg("Could not read users file, initializing an empty directory")
		}
		return
	}
	var records []models.User
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Could not parse users file, initializing an empty directory")
		return
	}
	for _, u := range records {
		s.users[strings.ToLower(u.Username)] = u
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
}

// IsEmpty reports whether the directory holds no active records. It gates
// the first-run bootstrap path.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if !u.Deleted {
			return false
		}
	}
	return true
}

// TryLogin looks a username up case-insensitively and verifies the password
// against the stored bcrypt hash. An unknown username and a wrong password
// produce the same result, so callers cannot probe for account existence.
func (s *Store) TryLogin(username, password string) (models.User, bool) {
	s.mu.RLock()
	u, ok := s.users[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok || u.Deleted {
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, false
	}
	return u, true
}

// GetUser returns the active record for a username, case-insensitively.
func (s *Store) GetUser(username string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(username)]
	if !ok || u.Deleted {
		return models.User{}, false
	}
	return u, true
}

// AddUser inserts a record and persists the full set before returning. The
// username keeps its original casing; uniqueness is case-insensitive and
// soft-deleted records still occupy their name. If the write fails the
// insertion is rolled back, keeping memory and disk consistent.
func (s *Store) AddUser(username, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(username)
	if existing, ok := s.users[key]; ok {
		return models.User{}, fmt.Errorf("user %q: %w", existing.Username, ErrUsernameTaken)
	}

	u := models.User{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[key] = u
	if err := s.persistLocked(); err != nil {
		delete(s.users, key)
		return models.User{}, fmt.Errorf("failed to persist user directory: %w", err)
	}
	s.nextID++
	return u, nil
}

// RemoveUser soft-deletes a record and persists. Removing an absent or
// already-deleted username is a no-op.
func (s *Store) RemoveUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(username)
	u, ok := s.users[key]
	if !ok || u.Deleted {
		return nil
	}

	prev := u
	u.Deleted = true
	u.UpdatedAt = time.Now().UTC()
	s.users[key] = u
	if err := s.persistLocked(); err != nil {
		s.users[key] = prev
		return fmt.Errorf("failed to persist user directory: %w", err)
	}
	return nil
}

// ListUsers returns a snapshot of all active records in unspecified order.
func (s *Store) ListUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if !u.Deleted {
			out = append(out, u)
		}
	}
	return out
}

// persistLocked rewrites the whole record set. Written to a temp file and
// renamed into place so a crash mid-write cannot leave a truncated file.
func (s *Store) persistLocked() error {
	records := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		records = append(records, u)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
