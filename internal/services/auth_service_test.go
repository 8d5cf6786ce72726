package services_test

import (
	"errors"
	"testing"

	"pustaka/internal/models"
	"pustaka/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test-secret")

	user := &models.User{
		ID:       "user-1",
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	}

	mockRepo.On("GetByEmail", "alice@example.com").Return(nil, errors.New("not found")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user)
	assert.NoError(t, err)

	// The password is stored hashed and the default role applied.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	assert.Equal(t, models.RoleUser, user.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test-secret")

	existing := &models.User{ID: "user-1", Email: "alice@example.com"}
	mockRepo.On("GetByEmail", "alice@example.com").Return(existing, nil).Once()

	err := authService.RegisterUser(&models.User{Email: "alice@example.com", Password: "pw"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{
		ID:       "user-1",
		Email:    "alice@example.com",
		Password: string(hashed),
		Role:     models.RoleUser,
	}

	mockRepo.On("GetByEmail", "alice@example.com").Return(user, nil)

	token, err := authService.LoginUser("alice@example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// The token round-trips through validation with the same secret.
	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "alice@example.com", claims["email"])
	assert.Equal(t, string(models.RoleUser), claims["role"])
}

func TestAuthService_LoginUser_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test-secret")

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-1", Email: "alice@example.com", Password: string(hashed)}

	mockRepo.On("GetByEmail", "alice@example.com").Return(user, nil)

	_, err := authService.LoginUser("alice@example.com", "wrong-password")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthService_LoginUser_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test-secret")

	mockRepo.On("GetByEmail", "ghost@example.com").Return(nil, errors.New("record not found"))

	_, err := authService.LoginUser("ghost@example.com", "whatever")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	mockRepo := new(MockUserRepository)
	issuer := services.NewAuthService(mockRepo, "secret-a")
	verifier := services.NewAuthService(mockRepo, "secret-b")

	hashed, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-1", Email: "alice@example.com", Password: string(hashed)}
	mockRepo.On("GetByEmail", "alice@example.com").Return(user, nil)

	token, err := issuer.LoginUser("alice@example.com", "pw")
	assert.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}
