package providers

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
)

var _ AuthProvider = &FirebaseAuthProvider{}

// idTokenVerifier is the part of the Firebase Auth client used to check tokens.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthProvider accepts Firebase ID tokens and maps them to match user ids.
type FirebaseAuthProvider struct {
	verifier idTokenVerifier
}

// NewFirebaseAuthProvider creates a FirebaseAuthProvider backed by the app's Auth client.
func NewFirebaseAuthProvider(ctx context.Context, app *firebase.App) (*FirebaseAuthProvider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}
	return &FirebaseAuthProvider{verifier: client}, nil
}

func (p *FirebaseAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := p.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("error verifying token: %v", err)
	}
	return claimsFromToken(token)
}

// claimsFromToken keeps the uid and, when it is a non-empty string, the name claim.
func claimsFromToken(token *auth.Token) (*TokenClaims, error) {
	if token == nil || token.UID == "" {
		return nil, fmt.Errorf("token has no uid")
	}
	claims := &TokenClaims{UID: token.UID}
	if name, ok := token.Claims["name"].(string); ok {
		claims.Name = strings.TrimSpace(name)
	}
	return claims, nil
}
