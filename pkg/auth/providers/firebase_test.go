package providers

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (v *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	token, ok := v.tokens[idToken]
	if !ok {
		return nil, errors.New("ID token has invalid signature")
	}
	return token, nil
}

func TestFirebaseAuthProviderVerifyToken(t *testing.T) {
	p := &FirebaseAuthProvider{verifier: &fakeVerifier{tokens: map[string]*auth.Token{
		"named":     {UID: "alice", Claims: map[string]interface{}{"name": "Alice Doe"}},
		"padded":    {UID: "bob", Claims: map[string]interface{}{"name": "  Bob  "}},
		"anonymous": {UID: "carol", Claims: map[string]interface{}{"email": "carol@example.com"}},
		"no claims": {UID: "dave"},
		"odd name":  {UID: "erin", Claims: map[string]interface{}{"name": 42}},
		"no uid":    {Claims: map[string]interface{}{"name": "Nobody"}},
	}}}

	tests := []struct {
		name    string
		token   string
		want    *TokenClaims
		wantErr bool
	}{
		{name: "name claim", token: "named", want: &TokenClaims{UID: "alice", Name: "Alice Doe"}},
		{name: "name is trimmed", token: "padded", want: &TokenClaims{UID: "bob", Name: "Bob"}},
		{name: "missing name", token: "anonymous", want: &TokenClaims{UID: "carol"}},
		{name: "nil claims", token: "no claims", want: &TokenClaims{UID: "dave"}},
		{name: "non-string name", token: "odd name", want: &TokenClaims{UID: "erin"}},
		{name: "missing uid", token: "no uid", wantErr: true},
		{name: "rejected by firebase", token: "forged", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.VerifyToken(context.Background(), tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
