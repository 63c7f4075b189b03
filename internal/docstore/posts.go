package docstore

import (
	"context"
	"errors"

	"devgram/internal/models"
	"devgram/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postRepository struct {
	coll *mongo.Collection
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	post.PrepareForInsert()
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, wrapNotFound(err, "Post", id)
	}
	normalize(&post)
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst).SetLimit(int64(limit)).SetSkip(int64(offset)))
}

func (r *postRepository) ListByAuthor(ctx context.Context, username string, limit, offset int) ([]*models.Post, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit)).SetSkip(int64(offset))
	return r.find(ctx, bson.M{"author.username": username}, opts)
}

func (r *postRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts := []*models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		normalize(p)
	}
	return posts, nil
}

// normalize replaces missing arrays with empty ones and restores the
// comment post IDs that are not stored on embedded comments.
func normalize(p *models.Post) {
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	if p.SavedBy == nil {
		p.SavedBy = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].PostID = p.ID
	}
}

// Delete removes the post document. Comments, likes and saves live inside it.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, username string) (bool, int, error) {
	post, err := r.toggle(ctx, postID, toggleMemberPipeline("likedBy", username, "likes"),
		bson.M{"likedBy": 1, "likes": 1})
	if err != nil {
		return false, 0, err
	}
	post.ForViewer(username)
	return post.Liked, post.Likes, nil
}

func (r *postRepository) ToggleSave(ctx context.Context, postID, username string) (bool, error) {
	post, err := r.toggle(ctx, postID, toggleMemberPipeline("savedBy", username, ""),
		bson.M{"savedBy": 1})
	if err != nil {
		return false, err
	}
	post.ForViewer(username)
	return post.Saved, nil
}

// toggle applies pipeline to one post and returns the projected document as
// it is after the update.
func (r *postRepository) toggle(ctx context.Context, postID string, pipeline mongo.Pipeline, projection bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(projection)

	var post models.Post
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID}, pipeline, opts).Decode(&post); err != nil {
		return nil, wrapNotFound(err, "Post", postID)
	}
	return &post, nil
}

func (r *postRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	comment.PrepareForInsert()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$push": bson.M{"comments": comment}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	comment.PostID = postID
	return nil
}

func (r *postRepository) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var post models.Post
	opts := options.FindOne().SetProjection(bson.M{"comments": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": postID}, opts).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	normalize(&post)
	return post.Comments, nil
}

func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	if limit <= 0 || limit > repository.SearchLimit {
		limit = repository.SearchLimit
	}
	return r.find(ctx, postSearchFilter(query), options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r *postRepository) Similar(ctx context.Context, source *models.Post, limit int) ([]*models.Post, error) {
	filter := similarFilter(source)
	if filter == nil {
		return []*models.Post{}, nil
	}
	if limit <= 0 || limit > repository.SimilarLimit {
		limit = repository.SimilarLimit
	}
	return r.find(ctx, filter, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}
