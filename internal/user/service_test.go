package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sainikcanteen/storefront/internal/user"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestUserService_Register_HashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	testUser := &user.User{
		Name:  "Test Soldier",
		Email: "soldier@example.com",
	}
	rawPassword := "somepassword"

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(nil).
		Once()

	registered, err := userService.Register(context.Background(), testUser, rawPassword)

	require.NoError(t, err)
	require.NotNil(t, registered)
	require.Equal(t, user.RoleCustomer, registered.Role)

	require.NotEqual(t, rawPassword, registered.PasswordHash)
	err = bcrypt.CompareHashAndPassword([]byte(registered.PasswordHash), []byte(rawPassword))
	require.NoError(t, err, "stored hash should match the raw password")

	mockRepo.AssertExpectations(t)
}

func TestUserService_Register_EmptyPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	registered, err := userService.Register(context.Background(), &user.User{Email: "soldier@example.com"}, "")
	require.Error(t, err)
	require.Nil(t, registered)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(user.ErrEmailExists).
		Once()

	registered, err := userService.Register(context.Background(), &user.User{Email: "dup@example.com"}, "somepassword")
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Nil(t, registered)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Authenticate_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	rawPassword := "somepassword"
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.MinCost)
	require.NoError(t, err)

	stored := user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         "Test Soldier",
		Email:        "soldier@example.com",
		PasswordHash: string(hash),
		Role:         user.RoleCustomer,
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now(),
	}

	mockRepo.On("GetByEmail", mock.Anything, stored.Email).
		Return(&stored, nil).
		Once()

	authenticated, err := userService.Authenticate(context.Background(), stored.Email, rawPassword)
	require.NoError(t, err)
	require.NotNil(t, authenticated)
	diff := cmp.Diff(stored, *authenticated)
	require.Empty(t, diff)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Authenticate_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	hash, err := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "soldier@example.com",
		PasswordHash: string(hash),
	}

	mockRepo.On("GetByEmail", mock.Anything, stored.Email).
		Return(&stored, nil).
		Once()

	authenticated, err := userService.Authenticate(context.Background(), stored.Email, "wrongpassword")
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrInvalidCredentials)
	require.Nil(t, authenticated)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Authenticate_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	mockRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, user.ErrNotFound).
		Once()

	authenticated, err := userService.Authenticate(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, authenticated)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	userID := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByID", mock.Anything, userID).
		Return(nil, user.ErrNotFound).
		Once()

	found, err := userService.GetByID(context.Background(), userID)
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, found)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Update_RehashesNewPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	userID := uuid.Must(uuid.NewV4())
	newPassword := "newpassword123"

	userToUpdate := user.User{
		ID:           userID,
		Name:         "Updated Soldier",
		Email:        "soldier@example.com",
		PasswordHash: "old-hash",
	}

	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.ID == userID &&
			u.PasswordHash != "old-hash" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(newPassword)) == nil
	})).
		Return(nil).
		Once()

	err := userService.Update(context.Background(), &userToUpdate, newPassword)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Update_KeepsHashWithoutNewPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	userToUpdate := user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         "Updated Soldier",
		Email:        "soldier@example.com",
		PasswordHash: "existing-hash",
	}

	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.PasswordHash == "existing-hash"
	})).
		Return(nil).
		Once()

	err := userService.Update(context.Background(), &userToUpdate, "")
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, bcrypt.MinCost)

	userID := uuid.Must(uuid.NewV4())

	mockRepo.On("Delete", mock.Anything, userID).
		Return(user.ErrNotFound).
		Once()

	err := userService.Delete(context.Background(), userID)
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
