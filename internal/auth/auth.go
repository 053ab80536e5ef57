// Package auth verifies identity-provider ID tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"llama-arcade/internal/config"
	"llama-arcade/internal/model"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer token into the caller's profile.
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.Profile, error)
}

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initialises the Firebase app for the configured project.
func NewFirebaseVerifier(ctx context.Context, cfg config.AuthConfig) (*FirebaseVerifier, error) {
	if cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("auth.firebase_project_id is not set")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the token signature and expiry and extracts profile claims.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*model.Profile, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return ProfileFromClaims(tok.UID, tok.Claims), nil
}

// ProfileFromClaims builds a profile from standard OpenID claims. Missing
// claims stay nil so they never overwrite stored values.
func ProfileFromClaims(uid string, claims map[string]any) *model.Profile {
	p := &model.Profile{ID: uid}
	p.Email = stringClaim(claims, "email")
	p.FirstName = stringClaim(claims, "given_name")
	p.LastName = stringClaim(claims, "family_name")
	p.ProfileImageURL = stringClaim(claims, "picture")

	// Firebase often carries only "name".
	if p.FirstName == nil {
		p.FirstName = stringClaim(claims, "name")
	}
	return p
}

func stringClaim(claims map[string]any, key string) *string {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}
