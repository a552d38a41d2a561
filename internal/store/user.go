package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"counseling-scheduler-api/internal/auth"
	"counseling-scheduler-api/internal/model"
)

type userDoc struct {
	ID           any       `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	IDNumber     string    `bson:"id_number"`
	Birthdate    string    `bson:"birthdate"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d *userDoc) toModel() *model.User {
	role := d.Role
	if role == "" {
		role = model.RoleUser
	}
	return &model.User{
		ID:           idString(d.ID),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		IDNumber:     d.IDNumber,
		Birthdate:    d.Birthdate,
		Role:         role,
		CreatedAt:    d.CreatedAt,
	}
}

// CreateUser inserts a new account and returns its identifier. Both
// uniqueness pre-checks run before the insert; the unique indexes catch
// the window between check and insert and report the same conflicts.
func (s *Store) CreateUser(ctx context.Context, u *model.User) (string, error) {
	if _, err := s.UserByUsername(ctx, u.Username); err == nil {
		return "", ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if _, err := s.UserByIDNumber(ctx, u.IDNumber); err == nil {
		return "", ErrDuplicateIDNumber
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	role := u.Role
	if role == "" {
		role = model.RoleUser
	}
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		IDNumber:     u.IDNumber,
		Birthdate:    u.Birthdate,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "uniq_id_number") {
				return "", ErrDuplicateIDNumber
			}
			return "", ErrDuplicateUsername
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	u.ID = idString(doc.ID)
	u.Role = role
	u.CreatedAt = doc.CreatedAt
	return u.ID, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) UserByIDNumber(ctx context.Context, idNumber string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"id_number": idNumber})
}

// UserByID resolves an identifier that may be stored in either
// representation, trying the generated form before the raw string.
func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	for _, f := range idFilters(id) {
		u, err := s.findUser(ctx, f)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Authenticate checks a username/password pair. An unknown username and
// a wrong password are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.UserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var d userDoc
	err := s.users().FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return d.toModel(), nil
}
