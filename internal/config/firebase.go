package config

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// Clients bundles the Firebase Admin SDK handles the service needs.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Messaging *messaging.Client
}

// NewClients initializes the Firebase app, Firestore and FCM messaging
// clients from the configured service-account credentials.
func NewClients(ctx context.Context, cfg Config) (*Clients, error) {
	if _, err := os.Stat(cfg.FirebaseCredentials); err != nil {
		return nil, fmt.Errorf("firebase credentials at %s: %w", cfg.FirebaseCredentials, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredentials))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore: %w", err)
	}

	msg, err := app.Messaging(ctx)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("init messaging: %w", err)
	}

	return &Clients{App: app, Firestore: fs, Messaging: msg}, nil
}

// Close releases the underlying connections.
func (c *Clients) Close() {
	if c.Firestore != nil {
		_ = c.Firestore.Close()
	}
}
