package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

type NewFirebaseAppOptions struct {
	ProjectID string
	// CredentialsFile points at a service account key. Without it application
	// default credentials are used.
	CredentialsFile string
	// APIKey is only needed when no credentials are available.
	APIKey string
}

// NewFirebaseApp creates the Firebase app shared by token verification and the Firestore repository.
func NewFirebaseApp(ctx context.Context, opts NewFirebaseAppOptions) (*firebase.App, error) {
	clientOpts := []option.ClientOption{}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	} else if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	var cfg *firebase.Config
	if opts.ProjectID != "" {
		cfg = &firebase.Config{ProjectID: opts.ProjectID}
	}
	app, err := firebase.NewApp(ctx, cfg, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}
	return app, nil
}
