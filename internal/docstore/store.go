// Package docstore implements the repository interfaces on MongoDB. Posts
// keep their like set, save set and comments embedded in one document, so
// toggles are single-document atomic updates.
package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"devgram/internal/middleware"
	"devgram/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers         = "users"
	collPosts         = "posts"
	collFollows       = "follows"
	collMessages      = "messages"
	collNotifications = "notifications"
)

// Store hands out MongoDB-backed repositories sharing one database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the deployment answers and returns a Store on
// database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb cannot be reached after connecting: %w", err)
	}
	middleware.Logger.Info("MongoDB connected", slog.String("database", database))
	return &Store{client: client, db: client.Database(database)}, nil
}

// NewStore wraps an existing database handle.
func NewStore(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collFollows: {
			{Keys: bson.D{{Key: "followerId", Value: 1}, {Key: "followingId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "followingId", Value: 1}}},
		},
		collPosts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "author.username", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "language", Value: 1}}},
		},
		collMessages: {
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		collNotifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Ping checks the deployment within ctx.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{coll: s.db.Collection(collUsers)}
}

func (s *Store) Follows() repository.FollowRepository {
	return &followRepository{edges: s.db.Collection(collFollows), users: s.db.Collection(collUsers)}
}

func (s *Store) Posts() repository.PostRepository {
	return &postRepository{coll: s.db.Collection(collPosts)}
}

func (s *Store) Messages() repository.MessageRepository {
	return &messageRepository{coll: s.db.Collection(collMessages)}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{coll: s.db.Collection(collNotifications)}
}

// Repositories returns every repository backed by this store.
func (s *Store) Repositories() repository.Set {
	return repository.Set{
		Users:         s.Users(),
		Follows:       s.Follows(),
		Posts:         s.Posts(),
		Messages:      s.Messages(),
		Notifications: s.Notifications(),
	}
}
