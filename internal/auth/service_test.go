package auth

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock Repository for testing
type mockUserRepository struct {
	credentials   map[string]string // username -> password hash
	userIDs       map[string]int64  // username -> user id
	usersByID     map[int64]*User
	taken         map[string]bool
	returnError   bool
	errorToReturn error
	nextID        int64
}

func newMockUserRepository() *mockUserRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.DefaultCost)

	return &mockUserRepository{
		credentials: map[string]string{
			"alice": string(hashedPassword),
			"admin": string(hashedPassword),
		},
		userIDs: map[string]int64{
			"alice": 1,
			"admin": 2,
		},
		usersByID: map[int64]*User{
			1: {ID: 1, Username: "alice", Email: "alice@mail.com"},
			2: {ID: 2, Username: "admin", Email: "admin@mail.com", IsStaff: true},
		},
		taken: map[string]bool{
			"alice": true,
			"admin": true,
		},
		nextID: 3,
	}
}

func (m *mockUserRepository) GetCredentials(username string) (string, int64, error) {
	if m.returnError {
		return "", 0, m.errorToReturn
	}

	if hash, exists := m.credentials[username]; exists {
		return hash, m.userIDs[username], nil
	}
	return "", 0, errors.New("user not found")
}

func (m *mockUserRepository) GetUserByID(userID int64) (*User, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}

	if user, exists := m.usersByID[userID]; exists {
		return user, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) CreateUser(username, email, passwordHash string) (*User, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}

	user := &User{ID: m.nextID, Username: username, Email: email}
	m.nextID++
	m.usersByID[user.ID] = user
	m.credentials[username] = passwordHash
	m.userIDs[username] = user.ID
	m.taken[username] = true
	return user, nil
}

func (m *mockUserRepository) UsernameOrEmailTaken(username, email string) (bool, error) {
	if m.returnError {
		return false, m.errorToReturn
	}
	return m.taken[username], nil
}

func (m *mockUserRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service       *Service
		mockRepo      *mockUserRepository
		tokenGen      *JWTTokenGenerator
		accessSecret  string        = "test-access-secret"
		refreshSecret string        = "test-refresh-secret"
		accessTTL     time.Duration = 15 * time.Minute
		refreshTTL    time.Duration = 24 * time.Hour
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator(accessSecret, refreshSecret, accessTTL, refreshTTL)
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(mockRepo, tokenGen, bcrypt.MinCost, testLogger)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return access and refresh tokens", func() {
				// Given
				dto := LoginDTO{
					Username: "alice",
					Password: "correct_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.Equal(tokens.RefreshToken))
			})

			ginkgo.It("should embed the user identity in the access token", func() {
				// Given
				dto := LoginDTO{
					Username: "admin",
					Password: "correct_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := service.ValidateAccessToken(tokens.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal(int64(2)))
				gomega.Expect(claims.Username).To(gomega.Equal("admin"))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should reject a wrong password", func() {
				// Given
				dto := LoginDTO{
					Username: "alice",
					Password: "wrong_password",
				}

				// When
				_, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
			})

			ginkgo.It("should reject an unknown username with the same error", func() {
				// Given
				dto := LoginDTO{
					Username: "nobody",
					Password: "correct_password",
				}

				// When
				_, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
			})

			ginkgo.It("should reject missing fields with a validation error", func() {
				// Given
				dto := LoginDTO{Username: "alice"}

				// When
				_, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				_, isValidation := err.(ValidationError)
				gomega.Expect(isValidation).To(gomega.BeTrue())
			})
		})
	})

	ginkgo.Describe("Register", func() {
		ginkgo.Context("when the payload is valid", func() {
			ginkgo.It("should create a non-staff account", func() {
				// Given
				dto := RegisterDTO{
					Username: "carol",
					Email:    "carol@mail.com",
					Password: "supersecret",
				}

				// When
				user, err := service.Register(dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(user.ID).To(gomega.BeNumerically(">", 0))
				gomega.Expect(user.Username).To(gomega.Equal("carol"))
				gomega.Expect(user.IsStaff).To(gomega.BeFalse())
			})

			ginkgo.It("should let the new account authenticate", func() {
				// Given
				dto := RegisterDTO{
					Username: "carol",
					Email:    "carol@mail.com",
					Password: "supersecret",
				}
				_, err := service.Register(dto)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				// When
				tokens, err := service.Authenticate(LoginDTO{Username: "carol", Password: "supersecret"})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			})
		})

		ginkgo.Context("when the username is taken", func() {
			ginkgo.It("should return a conflict error", func() {
				// Given
				dto := RegisterDTO{
					Username: "alice",
					Email:    "alice2@mail.com",
					Password: "supersecret",
				}

				// When
				_, err := service.Register(dto)

				// Then
				gomega.Expect(err).To(gomega.MatchError(ErrUserExists))
			})
		})

		ginkgo.Context("when the payload is invalid", func() {
			ginkgo.It("should reject a short password", func() {
				// Given
				dto := RegisterDTO{
					Username: "carol",
					Email:    "carol@mail.com",
					Password: "short",
				}

				// When
				_, err := service.Register(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("password"))
			})

			ginkgo.It("should reject a malformed email", func() {
				// Given
				dto := RegisterDTO{
					Username: "carol",
					Email:    "not-an-email",
					Password: "supersecret",
				}

				// When
				_, err := service.Register(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("email"))
			})
		})

		ginkgo.Context("when the repository fails", func() {
			ginkgo.It("should surface the error", func() {
				// Given
				mockRepo.setError(errors.New("database error"))
				dto := RegisterDTO{
					Username: "carol",
					Email:    "carol@mail.com",
					Password: "supersecret",
				}

				// When
				_, err := service.Register(dto)

				// Then
				gomega.Expect(err).To(gomega.MatchError("database error"))
			})
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("should issue a new pair for a valid refresh token", func() {
			// Given
			tokens, err := service.Authenticate(LoginDTO{Username: "alice", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			refreshed, err := service.RefreshTokens(tokens.RefreshToken)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(refreshed.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(refreshed.RefreshToken).ToNot(gomega.BeEmpty())

			claims, err := service.ValidateAccessToken(refreshed.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should reject garbage tokens", func() {
			// When
			_, err := service.RefreshTokens("not.a.token")

			// Then
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidToken))
		})

		ginkgo.It("should reject an expired token", func() {
			// Given
			expiredGen := NewJWTTokenGenerator(accessSecret, refreshSecret, -time.Minute, refreshTTL)
			expired, err := expiredGen.GenerateAccessToken(1, "alice")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			_, err = service.RefreshTokens(expired)

			// Then
			gomega.Expect(err).To(gomega.MatchError(ErrTokenExpired))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("should reject a token signed with the wrong secret", func() {
			// Given
			otherGen := NewJWTTokenGenerator("some-other-secret", refreshSecret, accessTTL, refreshTTL)
			token, err := otherGen.GenerateAccessToken(1, "alice")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			_, err = service.ValidateAccessToken(token)

			// Then
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidToken))
		})
	})
})
