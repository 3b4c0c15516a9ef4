package providers

import (
	"context"
	"fmt"
	"strings"
)

var _ AuthProvider = &InsecureAuthProvider{}

// InsecureAuthProvider trusts the token as the caller's uid.
// It exists for local development and tests only.
type InsecureAuthProvider struct{}

func NewInsecureAuthProvider() *InsecureAuthProvider {
	return &InsecureAuthProvider{}
}

// VerifyToken accepts "uid" or "uid:Display Name".
func (p *InsecureAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	uid, name, _ := strings.Cut(strings.TrimSpace(idToken), ":")
	if uid == "" {
		return nil, fmt.Errorf("error verifying token: empty token")
	}
	return &TokenClaims{
		UID:  uid,
		Name: name,
	}, nil
}
