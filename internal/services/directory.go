package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/balaghcms/notification-service/internal/models"
	"github.com/balaghcms/notification-service/internal/store"
)

// ErrSenderNotFound means the performedBy email has no user record, so the
// sender's identity cannot be verified.
var ErrSenderNotFound = errors.New("sender not found")

const usersCollection = "users"

// Directory resolves user records from the backing store.
type Directory interface {
	UserByEmail(ctx context.Context, email string) (models.UserRecord, error)
	UsersByRoleAndVillage(ctx context.Context, role, villageID string) ([]models.UserRecord, error)
}

// FirestoreDirectory reads the users collection through the Firestore REST
// client.
type FirestoreDirectory struct {
	store *store.Client
}

func NewFirestoreDirectory(client *store.Client) *FirestoreDirectory {
	return &FirestoreDirectory{store: client}
}

func (d *FirestoreDirectory) UserByEmail(ctx context.Context, email string) (models.UserRecord, error) {
	docs, err := d.store.RunQuery(ctx, store.Query{
		Collection: usersCollection,
		Filters:    []store.Filter{{Field: "email", Value: email}},
	})
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("look up user %s: %w", email, err)
	}
	if len(docs) == 0 {
		return models.UserRecord{}, ErrSenderNotFound
	}
	return userFromDocument(docs[0]), nil
}

func (d *FirestoreDirectory) UsersByRoleAndVillage(ctx context.Context, role, villageID string) ([]models.UserRecord, error) {
	docs, err := d.store.RunQuery(ctx, store.Query{
		Collection: usersCollection,
		Filters: []store.Filter{
			{Field: "role", Value: role},
			{Field: "assignedVillageId", Value: villageID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query %s users of village %s: %w", role, villageID, err)
	}
	users := make([]models.UserRecord, 0, len(docs))
	for _, doc := range docs {
		users = append(users, userFromDocument(doc))
	}
	return users, nil
}

func userFromDocument(doc store.Document) models.UserRecord {
	return models.UserRecord{
		Email:             doc.String("email"),
		Role:              doc.String("role"),
		AssignedVillageID: doc.String("assignedVillageId"),
	}
}
