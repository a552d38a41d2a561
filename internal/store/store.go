package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Outcomes the handlers translate to HTTP status codes. Anything else
// coming out of the store is an infrastructure fault.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrDuplicateIDNumber    = errors.New("id number already registered")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrRestrictedTransition = errors.New("can only approve or reject pending appointments")
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) users() *mongo.Collection        { return s.db.Collection("users") }
func (s *Store) appointments() *mongo.Collection { return s.db.Collection("appointments") }

// EnsureIndexes creates the unique indexes backing username and
// id-number uniqueness, so a write that slips past the pre-insert
// existence checks still comes back as a duplicate-key conflict.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("uniq_username").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "id_number", Value: 1}},
			Options: options.Index().SetName("uniq_id_number").SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Ping verifies the store connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
