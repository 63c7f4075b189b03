package docstore

import (
	"context"

	"devgram/internal/cache"
	"devgram/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// followRepository writes the edge and then recomputes both counters from
// edge counts, so the last recount to land always reflects the edge set.
type followRepository struct {
	edges *mongo.Collection
	users *mongo.Collection
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	n, err := r.edges.CountDocuments(ctx, bson.M{"followerId": followerID, "followingId": followingID})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followingID string) (*models.FollowResult, error) {
	result := &models.FollowResult{}

	del, err := r.edges.DeleteOne(ctx, bson.M{"followerId": followerID, "followingId": followingID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if del.DeletedCount == 0 {
		edge := &models.Follow{FollowerID: followerID, FollowingID: followingID}
		edge.PrepareForInsert()
		if _, err := r.edges.InsertOne(ctx, edge); err != nil && !mongo.IsDuplicateKeyError(err) {
			return nil, models.NewInternalError(err)
		}
		result.Following = true
	}

	followers, err := r.edges.CountDocuments(ctx, bson.M{"followingId": followingID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	following, err := r.edges.CountDocuments(ctx, bson.M{"followerId": followerID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if _, err := r.users.UpdateOne(ctx, bson.M{"_id": followingID}, bson.M{"$set": bson.M{"followers": followers}}); err != nil {
		return nil, models.NewInternalError(err)
	}
	if _, err := r.users.UpdateOne(ctx, bson.M{"_id": followerID}, bson.M{"$set": bson.M{"followingCount": following}}); err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, followerID, followingID)

	result.Followers = int(followers)
	result.FollowingCount = int(following)
	return result, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, bson.M{"followerId": userID}, func(f models.Follow) string { return f.FollowingID })
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, bson.M{"followingId": userID}, func(f models.Follow) string { return f.FollowerID })
}

func (r *followRepository) ids(ctx context.Context, filter bson.M, pick func(models.Follow) string) ([]string, error) {
	cursor, err := r.edges.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var edges []models.Follow
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, pick(e))
	}
	return ids, nil
}
