package docstore

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type commentRepository struct {
	s *Store
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery(Driver, "create", commentsCollection)()
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now
	_, err := r.s.comments().InsertOne(ctx, comment)
	return translateError(err)
}

func (r *commentRepository) GetByID(ctx context.Context, id models.ID) (*models.Comment, error) {
	defer observability.TrackQuery(Driver, "get", commentsCollection)()
	var comment models.Comment
	if err := r.s.comments().FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, translateError(err)
	}
	if err := r.populate(ctx, []*models.Comment{&comment}); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByArticle(ctx context.Context, articleID models.ID) ([]*models.Comment, error) {
	defer observability.TrackQuery(Driver, "list", commentsCollection)()
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.s.comments().Find(ctx, bson.M{"article": articleID}, opts)
	if err != nil {
		return nil, translateError(err)
	}
	comments := []*models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, translateError(err)
	}
	if err := r.populate(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery(Driver, "update", commentsCollection)()
	comment.UpdatedAt = time.Now()
	res, err := r.s.comments().UpdateOne(ctx, bson.M{"_id": comment.ID}, bson.M{"$set": bson.M{
		"content":   comment.Content,
		"updatedAt": comment.UpdatedAt,
	}})
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id models.ID) error {
	defer observability.TrackQuery(Driver, "delete", commentsCollection)()
	_, err := r.s.comments().DeleteOne(ctx, bson.M{"_id": id})
	return translateError(err)
}

func (r *commentRepository) DeleteByArticle(ctx context.Context, articleID models.ID) (int64, error) {
	defer observability.TrackQuery(Driver, "delete_by_article", commentsCollection)()
	res, err := r.s.comments().DeleteMany(ctx, bson.M{"article": articleID})
	if err != nil {
		return 0, translateError(err)
	}
	return res.DeletedCount, nil
}

func (r *commentRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	defer observability.TrackQuery(Driver, "delete_orphans", commentsCollection)()
	var referenced []models.ID
	if err := r.s.comments().Distinct(ctx, "article", bson.M{}).Decode(&referenced); err != nil {
		return 0, translateError(err)
	}
	if len(referenced) == 0 {
		return 0, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := r.s.articles().Find(ctx, bson.M{"_id": bson.M{"$in": referenced}}, opts)
	if err != nil {
		return 0, translateError(err)
	}
	var existing []struct {
		ID models.ID `bson:"_id"`
	}
	if err := cur.All(ctx, &existing); err != nil {
		return 0, translateError(err)
	}
	live := make(map[models.ID]struct{}, len(existing))
	for _, a := range existing {
		live[a.ID] = struct{}{}
	}

	var orphaned []models.ID
	for _, id := range referenced {
		if _, ok := live[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	res, err := r.s.comments().DeleteMany(ctx, bson.M{"article": bson.M{"$in": orphaned}})
	if err != nil {
		return 0, translateError(err)
	}
	return res.DeletedCount, nil
}

func (r *commentRepository) populate(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	users, err := r.s.userSummaries(ctx, uniqueIDs(len(comments), func(i int) models.ID { return comments[i].UserID }))
	if err != nil {
		return translateError(err)
	}
	for _, c := range comments {
		c.User = users[c.UserID]
	}
	return nil
}
