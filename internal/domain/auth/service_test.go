package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) GenerateToken(userID int64, username string) (string, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Error(1)
}

func (m *mockIssuer) TTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	repo := new(mockUserRepo)
	issuer := new(mockIssuer)
	svc := NewService(repo, issuer)

	user := &User{ID: 1, Username: "admin", PasswordHash: hashOf(t, "admin123")}
	repo.On("GetByUsername", mock.Anything, "admin").Return(user, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	issuer.On("GenerateToken", int64(1), "admin").Return("signed-token", nil)
	issuer.On("TTL").Return(24 * time.Hour)

	result, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	assert.Equal(t, "signed-token", result.Token)
	assert.Equal(t, int64(24*60*60), result.ExpiresIn)
	assert.NotNil(t, result.User.LastLogin)
	repo.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, new(mockIssuer))

	user := &User{ID: 1, Username: "admin", PasswordHash: hashOf(t, "admin123")}
	repo.On("GetByUsername", mock.Anything, "admin").Return(user, nil)

	_, err := svc.Login(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, new(mockIssuer))

	repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, ErrUserNotFound)

	// Unknown user and bad password must be indistinguishable.
	_, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, new(mockIssuer))

	user := &User{ID: 1, Username: "admin", PasswordHash: hashOf(t, "old")}
	repo.On("GetByUsername", mock.Anything, "admin").Return(user, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.ResetPassword(context.Background(), "admin", "brand-new"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand-new")))
}

func TestSeedDefaultAdmin(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, new(mockIssuer))

	repo.On("Count", mock.Anything).Return(int64(0), nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.Username == "admin" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin123")) == nil
	})).Return(nil)

	require.NoError(t, svc.SeedDefaultAdmin(context.Background(), "admin", "admin123", "admin@localhost"))
	repo.AssertExpectations(t)
}

func TestSeedDefaultAdminSkipsWhenUsersExist(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, new(mockIssuer))

	repo.On("Count", mock.Anything).Return(int64(1), nil)

	require.NoError(t, svc.SeedDefaultAdmin(context.Background(), "admin", "admin123", "admin@localhost"))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
