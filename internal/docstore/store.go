// Package docstore implements the repository interfaces on MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Driver is reported by Store.Driver and used as the metrics label.
const Driver = "mongo"

const (
	articlesCollection   = "articles"
	categoriesCollection = "categories"
	commentsCollection   = "comments"
	usersCollection      = "users"
)

// Store implements repository.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &Store{client: client, db: client.Database(database)}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	middleware.Logger.Info("MongoDB connected successfully", slog.String("database", database))
	return store, nil
}

// EnsureIndexes creates the indexes the queries rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	collections := map[string][]mongo.IndexModel{
		articlesCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "article", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "auth0Id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, indexes := range collections {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Articles() repository.ArticleRepository { return &articleRepository{s: s} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{s: s} }
func (s *Store) Comments() repository.CommentRepository { return &commentRepository{s: s} }
func (s *Store) Users() repository.UserRepository { return &userRepository{s: s} }
func (s *Store) Driver() string { return Driver }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) articles() *mongo.Collection { return s.db.Collection(articlesCollection) }
func (s *Store) categories() *mongo.Collection { return s.db.Collection(categoriesCollection) }
func (s *Store) comments() *mongo.Collection { return s.db.Collection(commentsCollection) }
func (s *Store) users() *mongo.Collection { return s.db.Collection(usersCollection) }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// userSummaries loads the id and name of each referenced user.
func (s *Store) userSummaries(ctx context.Context, ids []models.ID) (map[models.ID]*models.User, error) {
	out := make(map[models.ID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "name": 1})
	cur, err := s.users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	var users []*models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *Store) categoriesByID(ctx context.Context, ids []models.ID) (map[models.ID]*models.Category, error) {
	out := make(map[models.ID]*models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.categories().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var categories []*models.Category
	if err := cur.All(ctx, &categories); err != nil {
		return nil, err
	}
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

func uniqueIDs(n int, get func(i int) models.ID) []models.ID {
	seen := make(map[models.ID]struct{}, n)
	ids := make([]models.ID, 0, n)
	for i := 0; i < n; i++ {
		id := get(i)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
