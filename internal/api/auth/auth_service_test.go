package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/cv-builder-api/config"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

// MockAuthRepo is a mock implementation of AuthRepo
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) user(args mock.Arguments) (*types.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockAuthRepo) GetUserByGoogleID(ctx context.Context, googleID string) (*types.User, error) {
	return m.user(m.Called(ctx, googleID))
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, user *types.User) (*types.User, error) {
	return m.user(m.Called(ctx, user))
}

func (m *MockAuthRepo) LinkGoogleAccount(ctx context.Context, userID, googleID string) (*types.User, error) {
	return m.user(m.Called(ctx, userID, googleID))
}

type fakeVerifier struct {
	identity goth.User
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (goth.User, error) {
	return f.identity, f.err
}

func testTokenManager() *TokenManager {
	return NewTokenManager(config.JWTConfig{
		SecretKey: "test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "test-issuer",
	})
}

func newTestService(repo AuthRepo, verifier IdentityVerifier) *AuthServiceImpl {
	return NewAuthService(repo, testTokenManager(), verifier, nil, slog.Default())
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)

		mockRepo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.Username == "a" && u.Email == "a@x.com" && u.Provider == types.ProviderLocal &&
				bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("p")) == nil
		})).Return(&types.User{ID: "u1", Username: "a", Email: "a@x.com", Provider: types.ProviderLocal}, nil).Once()

		user, token, err := service.Register(context.Background(), types.RegisterRequest{
			Username: " a ",
			Email:    " A@X.com",
			Password: "p",
		})

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		claims, err := testTokenManager().Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)

		_, _, err := service.Register(context.Background(), types.RegisterRequest{Username: "a", Email: "a@x.com"})

		assert.ErrorIs(t, err, types.ErrValidation)
		assert.Contains(t, err.Error(), "Username, email, and password are required.")
		mockRepo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("ExistingEmail", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)

		mockRepo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(&types.User{ID: "u1"}, nil).Once()

		_, _, err := service.Register(context.Background(), types.RegisterRequest{Username: "a", Email: "a@x.com", Password: "p"})

		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("ConcurrentInsertLosesToUniqueIndex", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)

		mockRepo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.Anything).Return(nil, types.ErrConflict).Once()

		_, _, err := service.Register(context.Background(), types.RegisterRequest{Username: "a", Email: "a@x.com", Password: "p"})

		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Contains(t, err.Error(), "User already exists with this email.")
	})
}

func TestLogin(t *testing.T) {
	local := func(t *testing.T) *types.User {
		return &types.User{ID: "u1", Username: "jane", Email: "jane@x.com", Password: hashed(t, "secret"), Provider: types.ProviderLocal}
	}

	t.Run("ByEmail", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(local(t), nil).Once()

		user, token, err := service.Login(context.Background(), "jane@x.com", "secret")

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.NotEmpty(t, token)
		mockRepo.AssertNotCalled(t, "GetUserByUsername", mock.Anything, mock.Anything)
	})

	t.Run("ByUsername", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByEmail", mock.Anything, "jane").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByUsername", mock.Anything, "jane").Return(local(t), nil).Once()

		user, _, err := service.Login(context.Background(), "jane", "secret")

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByEmail", mock.Anything, "nobody").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByUsername", mock.Anything, "nobody").Return(nil, types.ErrNotFound).Once()

		_, _, err := service.Login(context.Background(), "nobody", "secret")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		assert.Contains(t, err.Error(), "Invalid credentials")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(local(t), nil).Once()

		_, _, err := service.Login(context.Background(), "jane@x.com", "nope")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("GoogleAccountRejectsPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		linked := local(t)
		linked.Provider = types.ProviderGoogle
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(linked, nil).Once()

		_, _, err := service.Login(context.Background(), "jane@x.com", "secret")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		assert.Contains(t, err.Error(), "Invalid credentials")
	})

	t.Run("MissingFields", func(t *testing.T) {
		service := newTestService(new(MockAuthRepo), nil)

		_, _, err := service.Login(context.Background(), "", "secret")

		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(nil, errors.New("connection reset")).Once()

		_, _, err := service.Login(context.Background(), "jane@x.com", "secret")

		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrUnauthenticated)
	})
}

func TestGoogleLogin(t *testing.T) {
	identity := goth.User{Provider: "google", UserID: "sub-1", Email: "Jane@X.com", Name: "Jane Doe"}

	t.Run("MissingToken", func(t *testing.T) {
		service := newTestService(new(MockAuthRepo), &fakeVerifier{identity: identity})

		_, _, err := service.GoogleLogin(context.Background(), "")

		assert.ErrorIs(t, err, types.ErrValidation)
		assert.Contains(t, err.Error(), "Google token is required.")
	})

	t.Run("InvalidToken", func(t *testing.T) {
		verifier := &fakeVerifier{err: errors.Join(types.ErrValidation, errors.New("bad signature"))}
		service := newTestService(new(MockAuthRepo), verifier)

		_, _, err := service.GoogleLogin(context.Background(), "tok")

		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("IdentityWithoutEmail", func(t *testing.T) {
		service := newTestService(new(MockAuthRepo), &fakeVerifier{identity: goth.User{UserID: "sub-1"}})

		_, _, err := service.GoogleLogin(context.Background(), "tok")

		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("KnownSubjectIsIdempotent", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, &fakeVerifier{identity: identity})
		existing := &types.User{ID: "u1", Provider: types.ProviderGoogle, Social: types.Social{GoogleID: "sub-1"}}
		mockRepo.On("GetUserByGoogleID", mock.Anything, "sub-1").Return(existing, nil).Twice()

		first, _, err := service.GoogleLogin(context.Background(), "tok-1")
		require.NoError(t, err)
		second, _, err := service.GoogleLogin(context.Background(), "tok-2")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("LinksExistingLocalAccount", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, &fakeVerifier{identity: identity})
		local := &types.User{ID: "u1", Email: "jane@x.com", Provider: types.ProviderLocal, Password: hashed(t, "secret")}
		linked := &types.User{ID: "u1", Email: "jane@x.com", Provider: types.ProviderGoogle, Password: local.Password,
			Social: types.Social{GoogleID: "sub-1"}}

		mockRepo.On("GetUserByGoogleID", mock.Anything, "sub-1").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(local, nil).Once()
		mockRepo.On("LinkGoogleAccount", mock.Anything, "u1", "sub-1").Return(linked, nil).Once()

		user, token, err := service.GoogleLogin(context.Background(), "tok")

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, types.ProviderGoogle, user.Provider)
		assert.NotEmpty(t, token)
		mockRepo.AssertExpectations(t)

		// The linked account no longer accepts its old password.
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(linked, nil).Once()
		_, _, err = service.Login(context.Background(), "jane@x.com", "secret")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("CreatesNewUser", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, &fakeVerifier{identity: identity})

		mockRepo.On("GetUserByGoogleID", mock.Anything, "sub-1").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.Username == "Jane Doe" && u.Email == "jane@x.com" && u.Password == "" &&
				u.Provider == types.ProviderGoogle && u.Social.GoogleID == "sub-1"
		})).Return(&types.User{ID: "u2", Provider: types.ProviderGoogle}, nil).Once()

		user, _, err := service.GoogleLogin(context.Background(), "tok")

		require.NoError(t, err)
		assert.Equal(t, "u2", user.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ConcurrentCreateResolvesToWinner", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, &fakeVerifier{identity: identity})
		winner := &types.User{ID: "u3", Provider: types.ProviderGoogle}

		mockRepo.On("GetUserByGoogleID", mock.Anything, "sub-1").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByEmail", mock.Anything, "jane@x.com").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.Anything).Return(nil, types.ErrConflict).Once()
		mockRepo.On("GetUserByGoogleID", mock.Anything, "sub-1").Return(winner, nil).Once()

		user, _, err := service.GoogleLogin(context.Background(), "tok")

		require.NoError(t, err)
		assert.Equal(t, "u3", user.ID)
	})
}

func TestDefaultUsername(t *testing.T) {
	assert.Equal(t, "Jane Doe", defaultUsername(" Jane Doe ", "jane@x.com"))
	assert.Equal(t, "jane", defaultUsername("", "jane@x.com"))
}

func TestGetOrCreateUserFromProviderRejectsUnknownProvider(t *testing.T) {
	service := newTestService(new(MockAuthRepo), nil)

	_, err := service.GetOrCreateUserFromProvider(context.Background(), "facebook", goth.User{UserID: "1", Email: "a@x.com"})

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestGetUser(t *testing.T) {
	tokens := testTokenManager()
	token, err := tokens.Generate("u1")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByID", mock.Anything, "u1").
			Return(&types.User{ID: "u1", Username: "jane", Email: "jane@x.com", Provider: types.ProviderLocal}, nil).Once()

		profile, err := service.GetUser(context.Background(), "Bearer "+token)

		require.NoError(t, err)
		assert.Equal(t, "u1", profile.ID)
		assert.Equal(t, "", profile.Contact)
		assert.Equal(t, types.Social{}, profile.Social)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		service := newTestService(new(MockAuthRepo), nil)

		_, err := service.GetUser(context.Background(), "")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("TamperedToken", func(t *testing.T) {
		service := newTestService(new(MockAuthRepo), nil)

		_, err := service.GetUser(context.Background(), "Bearer "+token+"x")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("DeletedUser", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(mockRepo, nil)
		mockRepo.On("GetUserByID", mock.Anything, "u1").Return(nil, types.ErrNotFound).Once()

		_, err := service.GetUser(context.Background(), "Bearer "+token)

		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Contains(t, err.Error(), "User not found")
	})
}
