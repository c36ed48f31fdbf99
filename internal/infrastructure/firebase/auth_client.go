package firebase

import (
	"context"
	"fmt"

	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Identity is what a verified ID token tells us about the caller.
type Identity struct {
	UID   string
	Name  string
	Email string
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// NewApp initialises the Admin SDK.
func NewApp(ctx context.Context, projectID string, opts ...option.ClientOption) (*fbapp.App, error) {
	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}
	return app, nil
}

// CredentialsOption prefers the inline JSON blob over the service account file.
func CredentialsOption(serviceAccountJSON, serviceAccountPath string) option.ClientOption {
	if serviceAccountJSON != "" {
		return option.WithCredentialsJSON([]byte(serviceAccountJSON))
	}
	return option.WithCredentialsFile(serviceAccountPath)
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	identity := &Identity{UID: result.UID}
	if name, ok := result.Claims["name"].(string); ok {
		identity.Name = name
	}
	if email, ok := result.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

// TestConnection performs a cheap authenticated call to confirm credentials work.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	iter := f.client.Users(ctx, "")
	iter.PageInfo().MaxSize = 1
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}
