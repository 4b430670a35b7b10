package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"go.uber.org/zap"
)

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) info(args mock.Arguments) (*models.UserInfo, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserInfo), args.Error(1)
}

func (m *MockAccountService) Signup(ctx context.Context, in services.SignupInput) (*models.UserInfo, error) {
	return m.info(m.Called(ctx, in))
}

func (m *MockAccountService) Login(ctx context.Context, in services.LoginInput) (*models.UserInfo, error) {
	return m.info(m.Called(ctx, in))
}

func (m *MockAccountService) ChangePassword(ctx context.Context, in services.ChangePasswordInput) (*models.UserInfo, error) {
	return m.info(m.Called(ctx, in))
}

func (m *MockAccountService) EditProfile(ctx context.Context, in services.EditProfileInput) (*models.UserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserResponse), args.Error(1)
}

func authCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthTokenCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	cookie := CookieConfig{Secure: true, TTL: time.Hour}

	t.Run("sets token cookie", func(t *testing.T) {
		svc := new(MockAccountService)
		loggedIn := true
		svc.On("Login", mock.Anything, services.LoginInput{Email: "jane@example.com", Password: "secret-pass"}).
			Return(&models.UserInfo{ID: uuid.New(), Name: "Jane", Role: models.RoleCustomer, IsLoggedIn: &loggedIn, Token: "signed"}, nil)
		h := NewAuthHandler(svc, cookie, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"jane@example.com","password":"secret-pass"}`))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		c := authCookie(w)
		require.NotNil(t, c)
		assert.Equal(t, "signed", c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, 3600, c.MaxAge)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidCredentials)
		h := NewAuthHandler(svc, cookie, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"jane@example.com","password":"wrong"}`))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, authCookie(w))
	})

	t.Run("invalid email rejected before the service", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAuthHandler(svc, cookie, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"jane","password":"x"}`))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Signup(t *testing.T) {
	body := `{"name":"Jane","email":"jane@example.com","phone":"5551234","password":"secret-pass","confirmPassword":"secret-pass"}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCookie bool
	}{
		{"created", nil, http.StatusCreated, true},
		{"duplicate email", services.ErrDuplicateEmail, http.StatusConflict, false},
		{"password mismatch", services.ErrPasswordMismatch, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAccountService)
			if tt.err != nil {
				svc.On("Signup", mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				svc.On("Signup", mock.Anything, mock.Anything).Return(&models.UserInfo{ID: uuid.New(), Token: "signed"}, nil)
			}
			h := NewAuthHandler(svc, CookieConfig{TTL: time.Hour}, zap.NewNop())

			w := httptest.NewRecorder()
			h.HandleSignup(w, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCookie, authCookie(w) != nil)
		})
	}
}

func TestAuthHandler_EditProfile(t *testing.T) {
	svc := new(MockAccountService)
	name := "Janet"
	svc.On("EditProfile", mock.Anything, mock.MatchedBy(func(in services.EditProfileInput) bool {
		return in.Name != nil && *in.Name == name
	})).Return(&models.UserResponse{ID: uuid.New(), Name: name, Role: models.RoleCustomer}, nil)
	h := NewAuthHandler(svc, CookieConfig{}, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleEditProfile(w, httptest.NewRequest(http.MethodPatch, "/auth/edit-profile",
		strings.NewReader(`{"email":"jane@example.com","password":"secret-pass","name":"Janet"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Janet"`)

	w = httptest.NewRecorder()
	h.HandleEditProfile(w, httptest.NewRequest(http.MethodPatch, "/auth/edit-profile",
		strings.NewReader(`{"email":"jane@example.com","password":"secret-pass","role":"Admin"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code, "role is not an accepted field")
	svc.AssertNumberOfCalls(t, "EditProfile", 1)
}
