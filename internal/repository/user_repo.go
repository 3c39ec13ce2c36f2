package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/sriRacha21/rct-backend/internal/models"
)

const usersCollection = "users"

// ErrUserNotFound is returned when no user document matches a uid.
var ErrUserNotFound = errors.New("user not found")

// UserRepository resolves tracker owners to their push tokens.
type UserRepository struct {
	client *firestore.Client
}

func NewUserRepository(client *firestore.Client) *UserRepository {
	return &UserRepository{client: client}
}

// ByUID returns the user document whose "user" field matches uid.
func (r *UserRepository) ByUID(ctx context.Context, uid string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).Where("user", "==", uid).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", uid, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", uid, err)
	}
	return &user, nil
}
