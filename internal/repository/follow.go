package repository

import (
	"context"

	"devgram/internal/cache"
	"devgram/internal/models"

	"gorm.io/gorm"
)

// FollowRepository owns the follow edge table and the counters derived from it.
type FollowRepository interface {
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	// Toggle deletes the edge when it exists and inserts it otherwise, then
	// recomputes both users' counters from edge counts.
	Toggle(ctx context.Context, followerID, followingID string) (*models.FollowResult, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a GORM-backed FollowRepository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followingID string) (*models.FollowResult, error) {
	result := &models.FollowResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
				return err
			}
			result.Following = true
		}

		followers, err := countEdges(tx, "following_id", followingID)
		if err != nil {
			return err
		}
		following, err := countEdges(tx, "follower_id", followerID)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", followingID).
			UpdateColumn("followers", followers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", following).Error; err != nil {
			return err
		}

		result.Followers = int(followers)
		result.FollowingCount = int(following)
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, followerID, followingID)
	return result, nil
}

func countEdges(tx *gorm.DB, column, userID string) (int64, error) {
	var n int64
	err := tx.Model(&models.Follow{}).Where(column+" = ?", userID).Count(&n).Error
	return n, err
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, "following_id", "follower_id", userID)
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, "follower_id", "following_id", userID)
}

func (r *followRepository) pluck(ctx context.Context, column, match, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where(match+" = ?", userID).
		Order("created_at ASC").
		Pluck(column, &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
