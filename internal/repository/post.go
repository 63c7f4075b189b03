package repository

import (
	"context"

	"devgram/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. Returned
// posts always carry their comments and the likedBy/savedBy sets.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, username string, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, username string) (liked bool, likes int, err error)
	ToggleSave(ctx context.Context, postID, username string) (saved bool, err error)
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Post, error)
	Similar(ctx context.Context, source *models.Post, limit int) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	post.PrepareForInsert()
	if err := r.db.WithContext(ctx).Omit("Comments").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.withComments(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, wrapNotFound(err, "Post", id)
	}
	posts := []*models.Post{&post}
	if err := r.attachSets(ctx, posts); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, r.withComments(ctx).Limit(limit).Offset(offset))
}

func (r *postRepository) ListByAuthor(ctx context.Context, username string, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, r.withComments(ctx).Where("author_username = ?", username).Limit(limit).Offset(offset))
}

func (r *postRepository) withComments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

// find runs q newest first and fills in the like and save sets.
func (r *postRepository) find(ctx context.Context, q *gorm.DB) ([]*models.Post, error) {
	posts := []*models.Post{}
	if err := q.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.attachSets(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) attachSets(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	byID := make(map[string]*models.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
		p.LikedBy = []string{}
		p.SavedBy = []string{}
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
	}

	var likes []models.PostLike
	if err := r.db.WithContext(ctx).Where("post_id IN ?", ids).Order("created_at ASC").Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, l := range likes {
		byID[l.PostID].LikedBy = append(byID[l.PostID].LikedBy, l.Username)
	}

	var saves []models.PostSave
	if err := r.db.WithContext(ctx).Where("post_id IN ?", ids).Find(&saves).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, s := range saves {
		byID[s.PostID].SavedBy = append(byID[s.PostID].SavedBy, s.Username)
	}
	return nil
}

// Delete removes the post and its comments, likes and saves in one transaction.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.PostLike{}, &models.PostSave{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	return asAppError(err)
}

// ToggleLike flips username's membership in the like set and stores the new
// set size as the post's like count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, username string) (bool, int, error) {
	var liked bool
	var likes int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}
		var err error
		liked, err = toggleMember(tx, &models.PostLike{PostID: postID, Username: username})
		if err != nil {
			return err
		}
		if err := tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&likes).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("likes", likes).Error
	})
	if err != nil {
		return false, 0, asAppError(err)
	}
	return liked, int(likes), nil
}

func (r *postRepository) ToggleSave(ctx context.Context, postID, username string) (bool, error) {
	var saved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}
		var err error
		saved, err = toggleMember(tx, &models.PostSave{PostID: postID, Username: username})
		return err
	})
	if err != nil {
		return false, asAppError(err)
	}
	return saved, nil
}

// toggleMember deletes the composite-key row when present and inserts it
// otherwise. It reports whether the row exists afterwards.
func toggleMember(tx *gorm.DB, row interface{}) (bool, error) {
	res := tx.Where(row).Delete(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.Create(row).Error; err != nil {
		return false, err
	}
	return true, nil
}

func ensurePost(tx *gorm.DB, postID string) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

func (r *postRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}
		comment.PostID = postID
		comment.PrepareForInsert()
		return tx.Create(comment).Error
	})
	return asAppError(err)
}

func (r *postRepository) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if err := ensurePost(r.db.WithContext(ctx), postID); err != nil {
		return nil, asAppError(err)
	}
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Search matches content, caption or any comment text case-insensitively.
func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	pattern := likePattern(query)
	commented := r.db.Model(&models.Comment{}).Select("post_id").Where(`LOWER(text) LIKE ? ESCAPE '\'`, pattern)
	q := r.withComments(ctx).
		Where(`LOWER(content) LIKE ? ESCAPE '\'`, pattern).
		Or(`LOWER(caption) LIKE ? ESCAPE '\'`, pattern).
		Or("id IN (?)", commented).
		Limit(clampLimit(limit, SearchLimit, SearchLimit))
	return r.find(ctx, q)
}

// Similar returns other posts whose content contains the source's content,
// whose caption contains the source's caption, or that share its language.
// Empty source fields do not match anything.
func (r *postRepository) Similar(ctx context.Context, source *models.Post, limit int) ([]*models.Post, error) {
	cond := r.db.Where("1 = 0")
	if source.Content != "" {
		cond = cond.Or(`LOWER(content) LIKE ? ESCAPE '\'`, likePattern(source.Content))
	}
	if source.Caption != "" {
		cond = cond.Or(`LOWER(caption) LIKE ? ESCAPE '\'`, likePattern(source.Caption))
	}
	if source.Language != "" {
		cond = cond.Or("language = ?", source.Language)
	}
	q := r.withComments(ctx).
		Where("id <> ?", source.ID).
		Where(cond).
		Limit(clampLimit(limit, SimilarLimit, SimilarLimit))
	return r.find(ctx, q)
}

// asAppError keeps AppErrors raised inside transactions and wraps the rest.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*models.AppError); ok {
		return err
	}
	return models.NewInternalError(err)
}
