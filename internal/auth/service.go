package auth

import (
	"log/slog"

	"github.com/opexhub/expense-approval/internal/user"
)

// UserDirectory is the slice of the user service the auth flow needs.
type UserDirectory interface {
	GetByEmail(email string) (*user.User, error)
	GetByID(id int64) (*user.User, error)
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(userID int64) (*user.User, error)
}

type Service struct {
	users          UserDirectory
	tokenGenerator TokenGeneratorAPI
	logger         *slog.Logger
}

func NewService(users UserDirectory, tokenGen TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(u)
}

// RefreshTokens validates a refresh token and returns a fresh pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !u.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(u)
}

func (s *Service) issueTokens(u *user.User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

func (s *Service) GetUser(userID int64) (*user.User, error) {
	return s.users.GetByID(userID)
}
