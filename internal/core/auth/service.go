package auth

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type Service struct {
	repo       *Repository
	jwtService *JWTService
}

// NewService creates a new auth service
func NewService(db *gorm.DB, jwtSecret string) *Service {
	return &Service{
		repo:       NewRepository(db),
		jwtService: NewJWTService(jwtSecret),
	}
}

// Repo exposes the repository for collaborators (reminder scheduler, billing)
func (s *Service) Repo() *Repository {
	return s.repo
}

// Register creates a new student account on the free plan
func (s *Service) Register(req *RegisterRequest) (*AuthResponse, error) {
	exists, err := s.repo.EmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already registered")
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:            req.Email,
		Name:             req.Name,
		College:          req.College,
		PasswordHash:     passwordHash,
		OAuthProvider:    "email",
		SubscriptionPlan: "free",
		IsActive:         true,
		EmailVerified:    false,
	}

	err = s.repo.CreateUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("✅ User registered: %s (%s)", user.Email, user.ID.String())

	return s.generateAuthResponse(user)
}

// Login authenticates user with email and password
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(req.Email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("invalid email or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	_ = s.repo.UpdateLastLogin(user.ID.String())

	log.Printf("✅ User logged in: %s (%s)", user.Email, user.ID.String())

	return s.generateAuthResponse(user)
}

// LoginWithGoogle authenticates user with a verified Google ID token
func (s *Service) LoginWithGoogle(googleID, email, name, avatarURL string) (*AuthResponse, error) {
	user, err := s.repo.GetUserByGoogleID(googleID)

	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// First-time Google login creates the account.
	if err == gorm.ErrRecordNotFound {
		user = &User{
			Email:            email,
			Name:             name,
			GoogleID:         googleID,
			AvatarURL:        avatarURL,
			OAuthProvider:    "google",
			SubscriptionPlan: "free",
			IsActive:         true,
			EmailVerified:    true, // Google accounts are pre-verified
		}

		err = s.repo.CreateUser(user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		log.Printf("✅ New Google user registered: %s (%s)", user.Email, user.ID.String())
	}

	_ = s.repo.UpdateLastLogin(user.ID.String())

	log.Printf("✅ User logged in via Google: %s (%s)", user.Email, user.ID.String())

	return s.generateAuthResponse(user)
}

// RefreshToken generates new access token from refresh token
func (s *Service) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.repo.GetUserByRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token not found or expired")
	}

	if user.ID.String() != userID {
		return nil, fmt.Errorf("refresh token user mismatch")
	}

	log.Printf("✅ Token refreshed for user: %s (%s)", user.Email, user.ID.String())

	return s.generateAuthResponse(user)
}

// Logout revokes user's refresh token
func (s *Service) Logout(userID string) error {
	err := s.repo.RevokeRefreshToken(userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	log.Printf("✅ User logged out: %s", userID)
	return nil
}

// ValidateToken validates an access token and returns user info
func (s *Service) ValidateToken(accessToken string) (*TokenClaims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}

// generateAuthResponse generates auth response with tokens and user info
func (s *Service) generateAuthResponse(user *User) (*AuthResponse, error) {
	claims := &TokenClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Plan:   user.SubscriptionPlan,
	}

	accessToken, expiresIn, err := s.jwtService.GenerateAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.repo.UpdateRefreshToken(user.ID.String(), refreshToken, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	userInfo := &UserInfo{
		ID:            user.ID.String(),
		Email:         user.Email,
		Name:          user.Name,
		College:       user.College,
		Plan:          user.SubscriptionPlan,
		AvatarURL:     user.AvatarURL,
		OAuthProvider: user.OAuthProvider,
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User:         userInfo,
	}, nil
}
