package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a student account. The subscription_plan column is the
// plan name the credit ledger reads; billing updates it after a verified
// payment.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	// Basic Info
	Email   string `gorm:"type:text;unique;not null" json:"email"`
	Name    string `gorm:"type:text" json:"name"`
	College string `gorm:"type:text" json:"college,omitempty"`

	// Authentication
	PasswordHash string `gorm:"type:text" json:"-"`

	// OAuth
	GoogleID      string `gorm:"type:text;unique;column:google_id" json:"google_id,omitempty"`
	OAuthProvider string `gorm:"type:text;default:'email';column:oauth_provider" json:"oauth_provider"`

	// Profile
	AvatarURL string `gorm:"type:text" json:"avatar_url,omitempty"`

	// Subscription
	SubscriptionPlan string `gorm:"type:text;not null;default:'free'" json:"subscription_plan"`

	// Status
	IsActive      bool `gorm:"type:boolean;default:true" json:"is_active"`
	EmailVerified bool `gorm:"type:boolean;default:false" json:"email_verified"`
	ReminderOptIn bool `gorm:"type:boolean;default:false" json:"reminder_opt_in"`

	// JWT Refresh Token
	RefreshToken          string     `gorm:"type:text" json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	// Timestamps
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets UUID before creating
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// LoginRequest represents login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest represents registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	College  string `json:"college,omitempty"`
}

// GoogleLoginRequest represents Google OAuth login request
type GoogleLoginRequest struct {
	GoogleIDToken string `json:"google_id_token" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	User         *UserInfo `json:"user"`
}

// RefreshRequest represents token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserInfo represents public user information
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	College       string `json:"college,omitempty"`
	Plan          string `json:"plan"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	OAuthProvider string `json:"oauth_provider,omitempty"`
}

// TokenClaims represents the claims carried by an access token
type TokenClaims struct {
	UserID string
	Email  string
	Plan   string
}
