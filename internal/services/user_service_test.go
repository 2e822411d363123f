package services

import (
	"testing"

	"github.com/jfelder/gatekeep-be/internal/userstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	store, err := userstore.New(t.TempDir())
	require.NoError(t, err)
	return NewUserService(store)
}

func TestCreateUser_BootstrapEstablishesSession(t *testing.T) {
	svc := newUserService(t)
	require.True(t, svc.StoreEmpty())

	result, err := svc.CreateUser("admin", "password1", false)
	require.NoError(t, err)
	assert.True(t, result.EstablishSession)
	assert.Equal(t, "admin", result.User.Username)
	assert.False(t, svc.StoreEmpty())

	// The just-supplied credentials log straight in.
	user, err := svc.Authenticate("admin", "password1")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
}

func TestCreateUser_UnauthenticatedRejectedWhenNotEmpty(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	_, err = svc.CreateUser("intruder", "password2", false)
	require.ErrorIs(t, err, ErrCreateNotAllowed)
	assert.Len(t, svc.ListUsers(), 1)
}

func TestCreateUser_AuthenticatedPath(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	result, err := svc.CreateUser("second", "password2", true)
	require.NoError(t, err)
	assert.False(t, result.EstablishSession)
	assert.Len(t, svc.ListUsers(), 2)
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"empty username", "", "password1", ErrMissingCredentials},
		{"empty password", "admin", "", ErrMissingCredentials},
		{"short password", "admin", "short", ErrPasswordTooShort},
		{"seven characters", "admin", "1234567", ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newUserService(t)
			_, err := svc.CreateUser(tt.username, tt.password, false)
			require.ErrorIs(t, err, tt.wantErr)
			// The directory is untouched on validation failures.
			assert.True(t, svc.StoreEmpty())
		})
	}
}

func TestCreateUser_DuplicateIsCaseInsensitive(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.CreateUser("Admin", "password1", false)
	require.NoError(t, err)

	_, err = svc.CreateUser("admin", "other123", true)
	require.ErrorIs(t, err, userstore.ErrUsernameTaken)
	assert.Len(t, svc.ListUsers(), 1)
}

func TestAuthenticate_UniformFailure(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	// Unknown username and wrong password are indistinguishable.
	_, unknownErr := svc.Authenticate("nobody", "password1")
	_, wrongErr := svc.Authenticate("admin", "password2")
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.Authenticate("", "password1")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = svc.Authenticate("admin", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestRemoveUser_ReopensBootstrap(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveUser("admin"))
	assert.True(t, svc.StoreEmpty())

	// With no active users left, the bootstrap path is open again.
	result, err := svc.CreateUser("rescue", "password1", false)
	require.NoError(t, err)
	assert.True(t, result.EstablishSession)
}
