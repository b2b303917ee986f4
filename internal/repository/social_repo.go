package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/db"
)

// SocialRepository covers the follow and block graphs.
type SocialRepository struct {
	db *gorm.DB
}

func NewSocialRepository(database *gorm.DB) *SocialRepository {
	return &SocialRepository{db: database}
}

// Follow adds follower -> followee. Repeating it is a no-op.
func (r *SocialRepository) Follow(ctx context.Context, followerID, followeeID uint64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
}

func (r *SocialRepository) Unfollow(ctx context.Context, followerID, followeeID uint64) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&db.Follow{}).Error
}

// FollowCounts returns (followers, following) for a user.
func (r *SocialRepository) FollowCounts(ctx context.Context, userID uint64) (int64, int64, error) {
	var followers, following int64
	if err := r.db.WithContext(ctx).Model(&db.Follow{}).
		Where("followee_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&db.Follow{}).
		Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

func (r *SocialRepository) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// Block adds blocker -> blocked and drops follow edges both ways.
// Run it inside a transaction.
func (r *SocialRepository) Block(ctx context.Context, blockerID, blockedID uint64) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Block{BlockerID: blockerID, BlockedID: blockedID}).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)",
			blockerID, blockedID, blockedID, blockerID).
		Delete(&db.Follow{}).Error
}

func (r *SocialRepository) Unblock(ctx context.Context, blockerID, blockedID uint64) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.Block{}).Error
}

// HasBlocked reports whether blocker blocked blocked.
func (r *SocialRepository) HasBlocked(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, err
}

// IsBlockedEitherWay reports a block in any direction between a and b.
func (r *SocialRepository) IsBlockedEitherWay(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// BlockedIDs lists users the user blocked plus users who blocked the user.
func (r *SocialRepository) BlockedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var blocked, blockers []uint64
	if err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("blocker_id = ?", userID).Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("blocked_id = ?", userID).Pluck("blocker_id", &blockers).Error; err != nil {
		return nil, err
	}
	return append(blocked, blockers...), nil
}
