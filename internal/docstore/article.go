package docstore

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type articleRepository struct {
	s *Store
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	defer observability.TrackQuery(Driver, "create", articlesCollection)()
	if article.ID == "" {
		article.ID = models.NewID()
	}
	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	_, err := r.s.articles().InsertOne(ctx, article)
	return translateError(err)
}

func (r *articleRepository) GetByID(ctx context.Context, id models.ID) (*models.Article, error) {
	defer observability.TrackQuery(Driver, "get", articlesCollection)()
	var article models.Article
	if err := r.s.articles().FindOne(ctx, bson.M{"_id": id}).Decode(&article); err != nil {
		return nil, translateError(err)
	}
	if err := r.populate(ctx, []*models.Article{&article}); err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) Count(ctx context.Context, filter repository.ArticleFilter) (int64, error) {
	defer observability.TrackQuery(Driver, "count", articlesCollection)()
	n, err := r.s.articles().CountDocuments(ctx, articleQuery(filter))
	return n, translateError(err)
}

func (r *articleRepository) List(ctx context.Context, filter repository.ArticleFilter, limit, offset int) ([]*models.Article, error) {
	defer observability.TrackQuery(Driver, "list", articlesCollection)()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.find(ctx, articleQuery(filter), opts)
}

func (r *articleRepository) ListByIDs(ctx context.Context, ids []models.ID) ([]*models.Article, error) {
	if len(ids) == 0 {
		return []*models.Article{}, nil
	}
	defer observability.TrackQuery(Driver, "list_by_ids", articlesCollection)()
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

func (r *articleRepository) find(ctx context.Context, query bson.M, opts *options.FindOptionsBuilder) ([]*models.Article, error) {
	cur, err := r.s.articles().Find(ctx, query, opts)
	if err != nil {
		return nil, translateError(err)
	}
	articles := []*models.Article{}
	if err := cur.All(ctx, &articles); err != nil {
		return nil, translateError(err)
	}
	if err := r.populate(ctx, articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	defer observability.TrackQuery(Driver, "update", articlesCollection)()
	article.UpdatedAt = time.Now()
	res, err := r.s.articles().UpdateOne(ctx, bson.M{"_id": article.ID}, bson.M{"$set": bson.M{
		"title":         article.Title,
		"content":       article.Content,
		"category":      article.CategoryID,
		"coverImageUrl": article.CoverImageURL,
		"updatedAt":     article.UpdatedAt,
	}})
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id models.ID) (int64, error) {
	defer observability.TrackQuery(Driver, "delete", articlesCollection)()
	res, err := r.s.articles().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, translateError(err)
	}
	return res.DeletedCount, nil
}

// populate fills Author (id and name) and Category on each article.
func (r *articleRepository) populate(ctx context.Context, articles []*models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	authors, err := r.s.userSummaries(ctx, uniqueIDs(len(articles), func(i int) models.ID { return articles[i].AuthorID }))
	if err != nil {
		return translateError(err)
	}
	categories, err := r.s.categoriesByID(ctx, uniqueIDs(len(articles), func(i int) models.ID { return articles[i].CategoryID }))
	if err != nil {
		return translateError(err)
	}
	for _, a := range articles {
		a.Author = authors[a.AuthorID]
		a.Category = categories[a.CategoryID]
	}
	return nil
}

func articleQuery(filter repository.ArticleFilter) bson.M {
	switch filter.Kind {
	case repository.FilterCategory:
		return bson.M{"category": filter.CategoryID}
	case repository.FilterAuthor:
		return bson.M{"author": filter.AuthorID}
	case repository.FilterSearch:
		if filter.Pattern == "" {
			return bson.M{}
		}
		re := bson.Regex{Pattern: filter.Pattern, Options: "i"}
		return bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
		}}
	default:
		return bson.M{}
	}
}
