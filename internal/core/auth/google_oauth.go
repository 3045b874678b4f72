package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleOAuthService validates Google ID tokens for the one-tap sign-in
// flow. Only the verified claims needed to create or match a StudyMate
// account are surfaced.
type GoogleOAuthService struct {
	clientID string
}

func NewGoogleOAuthService(clientID string) *GoogleOAuthService {
	return &GoogleOAuthService{clientID: clientID}
}

// GoogleUserInfo is the subset of token claims the auth service consumes.
type GoogleUserInfo struct {
	GoogleID  string
	Email     string
	Name      string
	AvatarURL string
}

// VerifyIDToken validates the token against our client ID and rejects
// accounts whose email Google has not verified.
func (s *GoogleOAuthService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	payload, err := idtoken.Validate(ctx, idToken, s.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Google ID token: %w", err)
	}

	googleID, ok := payload.Claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing sub claim in token")
	}

	emailVerified, _ := payload.Claims["email_verified"].(bool)
	if !emailVerified {
		return nil, fmt.Errorf("email not verified by Google")
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	avatarURL, _ := payload.Claims["picture"].(string)

	return &GoogleUserInfo{
		GoogleID:  googleID,
		Email:     email,
		Name:      name,
		AvatarURL: avatarURL,
	}, nil
}
