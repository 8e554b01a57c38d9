package docstore

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	defer observability.TrackQuery(Driver, "list", categoriesCollection)()
	cur, err := r.s.categories().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translateError(err)
	}
	categories := []*models.Category{}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, translateError(err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id models.ID) (*models.Category, error) {
	defer observability.TrackQuery(Driver, "get", categoriesCollection)()
	var category models.Category
	if err := r.s.categories().FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

func (r *categoryRepository) Ensure(ctx context.Context, category *models.Category) (*models.Category, error) {
	defer observability.TrackQuery(Driver, "ensure", categoriesCollection)()
	if category.ID == "" {
		category.ID = models.NewID()
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored models.Category
	err := r.s.categories().FindOneAndUpdate(ctx,
		bson.M{"slug": category.Slug},
		bson.M{"$setOnInsert": bson.M{"_id": category.ID, "name": category.Name}},
		opts,
	).Decode(&stored)
	if err != nil {
		return nil, translateError(err)
	}
	return &stored, nil
}
