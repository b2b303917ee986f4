package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/utils/pagination"
)

var positiveSwipes = []string{db.SwipeLike, db.SwipeSuperlike, db.SwipeReact, db.SwipeInstant}

// LikeRepository provides data access methods for the Like ledger.
// It encapsulates all queries related to swipes between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection
// (or transaction).
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Find returns the record liker -> liked, or gorm.ErrRecordNotFound.
func (r *LikeRepository) Find(ctx context.Context, likerID, likedID uint64) (*db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Take(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Create inserts a new record. A concurrent insert for the same pair fails
// with gorm.ErrDuplicatedKey.
func (r *LikeRepository) Create(ctx context.Context, like *db.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// UpdateType overwrites the action (and message) of an existing record.
func (r *LikeRepository) UpdateType(ctx context.Context, id uint64, action, message string) error {
	return r.db.WithContext(ctx).
		Model(&db.Like{ID: id}).
		Updates(map[string]any{"type": action, "message": message}).Error
}

// CreateOrUpdate inserts or updates the record liker -> liked.
//
// Behavior:
//   - If (liker_id, liked_id) exists → the row is updated with the new type.
//   - If it doesn’t exist → a new row is inserted.
func (r *LikeRepository) CreateOrUpdate(ctx context.Context, likerID, likedID uint64, action string) error {
	like := db.Like{
		LikerID: likerID,
		LikedID: likedID,
		Type:    action,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		}).
		Create(&like).Error
}

// HasPositive reports whether liker has a positive record toward liked.
// Used for the reciprocity check in the swipe resolver.
func (r *LikeRepository) HasPositive(ctx context.Context, likerID, likedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ? AND type IN ?", likerID, likedID, positiveSwipes).
		Count(&count).Error
	return count > 0, err
}

// Latest returns the liker's most recently written record.
func (r *LikeRepository) Latest(ctx context.Context, likerID uint64) (*db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ?", likerID).
		Order("updated_at DESC, id DESC").
		Take(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Delete removes a single record by id.
func (r *LikeRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.Like{}, id).Error
}

// DeleteByType removes every record of the given action made by liker.
func (r *LikeRepository) DeleteByType(ctx context.Context, likerID uint64, action string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("liker_id = ? AND type = ?", likerID, action).
		Delete(&db.Like{})
	return res.RowsAffected, res.Error
}

// CountByType counts liker's records of the given action.
func (r *LikeRepository) CountByType(ctx context.Context, likerID uint64, action string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND type = ?", likerID, action).
		Count(&count).Error
	return count, err
}

// SwipedIDs lists every user liker has a record for, whatever the action.
func (r *LikeRepository) SwipedIDs(ctx context.Context, likerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ?", likerID).
		Pluck("liked_id", &ids).Error
	return ids, err
}

// likersQuery selects positive records toward likedID from users likedID has
// not swiped on yet and who are not blocked either way.
func (r *LikeRepository) likersQuery(ctx context.Context, likedID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("likes l").
		Where("l.liked_id = ? AND l.type IN ?", likedID, positiveSwipes).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l2
				WHERE l2.liker_id = ?
				  AND l2.liked_id = l.liker_id
			)`, likedID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = l.liker_id)
				   OR (b.blocker_id = l.liker_id AND b.blocked_id = ?)
			)`, likedID, likedID)
}

// GetLikers returns users who swiped positively on likedID and are still
// waiting for likedID's decision.
//
// Behavior:
//   - Ordered by updated_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, nil, 20) // first 20 pending likes for user 42
func (r *LikeRepository) GetLikers(
	ctx context.Context,
	likedID uint64,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	var likes []db.Like

	cursor, err := pagination.Parse(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.likersQuery(ctx, likedID).
		Select("l.*").
		Order("l.updated_at DESC, l.id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(l.updated_at < ? OR (l.updated_at = ? AND l.id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token := pagination.At(last.UpdatedAt, last.ID).Token()
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountLikers counts the same set GetLikers pages through.
// Used in conjunction with Redis cache (DB is fallback).
func (r *LikeRepository) CountLikers(ctx context.Context, likedID uint64) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, likedID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
