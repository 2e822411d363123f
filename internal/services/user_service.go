package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jfelder/gatekeep-be/internal/models"
	"github.com/jfelder/gatekeep-be/internal/userstore"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrPasswordTooShort is returned when the password fails the length check.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	// ErrCreateNotAllowed is returned when an unauthenticated caller tries to
	// create a user while the directory already has one.
	ErrCreateNotAllowed = errors.New("user creation requires authentication")
	// ErrInvalidCredentials is the uniform login failure; it does not reveal
	// whether the username exists.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserServiceProvider defines the interface for the authentication workflow.
type UserServiceProvider interface {
	StoreEmpty() bool
	CreateUser(username, password string, callerAuthenticated bool) (CreateResult, error)
	Authenticate(username, password string) (models.User, error)
	GetUser(username string) (models.User, bool)
	RemoveUser(username string) error
	ListUsers() []models.User
}

// CreateResult reports a successful creation. EstablishSession is set when
// the caller should be signed in as the new user, which only happens on the
// first-run bootstrap path.
type CreateResult struct {
	User             models.User
	EstablishSession bool
}

// UserService orchestrates first-run bootstrap, credential validation and
// password hashing on top of the user directory.
type UserService struct {
	store *userstore.Store
}

// NewUserService creates a new UserService.
func NewUserService(store *userstore.Store) *UserService {
	return &UserService{store: store}
}

// StoreEmpty reports whether the directory has no users yet.
func (s *UserService) StoreEmpty() bool {
	return s.store.IsEmpty()
}

// CreateUser validates credentials, hashes the password and adds the user to
// the directory. Unauthenticated callers are only allowed through while the
// directory is empty; that bootstrap creation additionally instructs the
// caller to establish a session for the new user, mirroring a login with the
// just-supplied credentials.
func (s *UserService) CreateUser(username, password string, callerAuthenticated bool) (CreateResult, error) {
	bootstrap := false
	if !callerAuthenticated {
		if !s.store.IsEmpty() {
			return CreateResult{}, ErrCreateNotAllowed
		}
		bootstrap = true
	}

	if username == "" || password == "" {
		return CreateResult{}, ErrMissingCredentials
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return CreateResult{}, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.AddUser(username, string(hash))
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{User: user, EstablishSession: bootstrap}, nil
}

// Authenticate verifies a user's credentials. The returned error is the same
// whether the username is unknown or the password is wrong.
func (s *UserService) Authenticate(username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	user, ok := s.store.TryLogin(username, password)
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the active record for a username.
func (s *UserService) GetUser(username string) (models.User, bool) {
	return s.store.GetUser(username)
}

// RemoveUser soft-deletes a user from the directory.
func (s *UserService) RemoveUser(username string) error {
	return s.store.RemoveUser(username)
}

// ListUsers returns all active users.
func (s *UserService) ListUsers() []models.User {
	return s.store.ListUsers()
}
