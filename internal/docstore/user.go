package docstore

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery(Driver, "create", usersCollection)()
	if user.ID == "" {
		user.ID = models.NewID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.BookmarkedIDs == nil {
		user.BookmarkedIDs = []models.ID{}
	}
	_, err := r.s.users().InsertOne(ctx, user)
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id models.ID) (*models.User, error) {
	return r.findOne(ctx, "get", bson.M{"_id": id})
}

func (r *userRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	return r.findOne(ctx, "get_by_auth0_id", bson.M{"auth0Id": auth0ID})
}

func (r *userRepository) findOne(ctx context.Context, op string, filter bson.M) (*models.User, error) {
	defer observability.TrackQuery(Driver, op, usersCollection)()
	var user models.User
	if err := r.s.users().FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	if user.BookmarkedIDs == nil {
		user.BookmarkedIDs = []models.ID{}
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery(Driver, "update", usersCollection)()
	user.UpdatedAt = time.Now()
	res, err := r.s.users().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"email":     user.Email,
		"name":      user.Name,
		"bio":       user.Bio,
		"updatedAt": user.UpdatedAt,
	}})
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddBookmark prepends articleID unless it is already present.
func (r *userRepository) AddBookmark(ctx context.Context, userID, articleID models.ID) error {
	defer observability.TrackQuery(Driver, "add_bookmark", usersCollection)()
	_, err := r.s.users().UpdateOne(ctx,
		bson.M{"_id": userID, "bookmarkedIds": bson.M{"$ne": articleID}},
		bson.M{"$push": bson.M{"bookmarkedIds": bson.M{
			"$each":     bson.A{articleID},
			"$position": 0,
		}}},
	)
	return translateError(err)
}

func (r *userRepository) RemoveBookmark(ctx context.Context, userID, articleID models.ID) error {
	defer observability.TrackQuery(Driver, "remove_bookmark", usersCollection)()
	_, err := r.s.users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"bookmarkedIds": articleID}},
	)
	return translateError(err)
}
