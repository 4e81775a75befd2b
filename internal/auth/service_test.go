package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opexhub/expense-approval/internal/auth"
	"github.com/opexhub/expense-approval/internal/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockUserDirectory struct {
	byEmail map[string]*user.User
	byID    map[int64]*user.User
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{
		byEmail: make(map[string]*user.User),
		byID:    make(map[int64]*user.User),
	}
}

func (m *mockUserDirectory) add(u *user.User) {
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
}

func (m *mockUserDirectory) GetByEmail(email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserDirectory) GetByID(id int64) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

var _ = Describe("AuthService", func() {
	var (
		users    *mockUserDirectory
		tokenGen *auth.JWTTokenGenerator
		service  *auth.Service
		active   *user.User
	)

	BeforeEach(func() {
		users = newMockUserDirectory()
		tokenGen = auth.NewJWTTokenGenerator(
			"test-access-secret-at-least-32-chars!",
			"test-refresh-secret-at-least-32-char!",
			15*time.Minute,
			7*24*time.Hour,
		)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(users, tokenGen, logger)

		hash, err := auth.HashPassword("correct-horse", 10)
		Expect(err).NotTo(HaveOccurred())

		active = &user.User{
			ID:           1,
			Email:        "ava@acme.test",
			PasswordHash: hash,
			Role:         user.RoleAdmin,
			CompanyID:    1,
			IsActive:     true,
		}
		users.add(active)
	})

	Describe("Authenticate", func() {
		It("issues a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: active.Email, Password: "correct-horse"})

			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(active.ID))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: active.Email, Password: "wrong"})
			Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())
		})

		It("rejects unknown emails with the same error as a bad password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "ghost@acme.test", Password: "whatever"})
			Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())
		})

		It("rejects inactive users", func() {
			active.IsActive = false
			_, err := service.Authenticate(auth.LoginDTO{Email: active.Email, Password: "correct-horse"})
			Expect(errors.Is(err, auth.ErrUserInactive)).To(BeTrue())
		})
	})

	Describe("RefreshTokens", func() {
		It("exchanges a refresh token for a new pair", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: active.Email, Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			fresh, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.AccessToken).NotTo(BeEmpty())
		})

		It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens("not-a-jwt")
			Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
		})

		It("rejects tokens for users that no longer exist", func() {
			gone, err := tokenGen.GenerateRefreshToken(999, "gone@acme.test")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(gone)
			Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
		})
	})

	Describe("AuthMiddleware", func() {
		It("places the authenticated user in the request context", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: active.Email, Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			handler := auth.NewHandler(service)

			var seen *user.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = user.FromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(seen).NotTo(BeNil())
			Expect(seen.ID).To(Equal(active.ID))
		})

		It("rejects requests without a bearer token", func() {
			handler := auth.NewHandler(service)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(called).To(BeFalse())
		})
	})

	Describe("JWTTokenGenerator", func() {
		It("reports expired tokens distinctly", func() {
			shortLived := auth.NewJWTTokenGenerator(
				"test-access-secret-at-least-32-chars!",
				"test-refresh-secret-at-least-32-char!",
				time.Nanosecond,
				time.Nanosecond,
			)
			token, err := shortLived.GenerateAccessToken(1, "ava@acme.test")
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			_, err = shortLived.ValidateToken(token)
			Expect(errors.Is(err, auth.ErrTokenExpired)).To(BeTrue())
		})

		It("rejects tokens signed with a different secret", func() {
			other := auth.NewJWTTokenGenerator(
				"another-access-secret-32-chars-long!!",
				"another-refresh-secret-32-chars-lon!!",
				15*time.Minute,
				7*24*time.Hour,
			)
			token, err := other.GenerateAccessToken(1, "ava@acme.test")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokenGen.ValidateToken(token)
			Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
		})
	})
})
