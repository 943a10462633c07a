package database

import (
	"context"
	"errors"
	"fmt"

	"blogging-platform/config"
	"blogging-platform/models"
)

// Store persists users, posts and comments. Lookups by an id the backend
// cannot parse report models.ErrNotFound. Get and List results carry the
// populated Author.
type Store interface {
	Connect(ctx context.Context, cfg config.DatabaseConfig) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	UpdatePost(ctx context.Context, id, title, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// ListComments returns every comment when postID is empty.
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

func NewStore(storeType string) (Store, error) {
	switch storeType {
	case config.StoreMongoDB:
		return NewMongoDBStore(), nil
	case config.StorePostgres:
		return NewPostgresStore(), nil
	case config.StoreCassandra:
		return NewCassandraStore(), nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}

var errNotConnected = errors.New("store is not connected")

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
