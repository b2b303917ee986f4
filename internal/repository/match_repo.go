package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/db"
)

// MatchRepository stores the symmetric match relation as mirrored rows.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Link writes both directions of a match. Existing rows are left alone, so
// the call is idempotent. created is true when at least one row was new.
// Callers run it inside a transaction so both rows land together.
func (r *MatchRepository) Link(ctx context.Context, a, b uint64, source string) (created bool, err error) {
	rows := []db.Match{
		{UserID: a, MatchedUserID: b, Source: source},
		{UserID: b, MatchedUserID: a, Source: source},
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Unlink deletes both directions and returns how many rows went away.
func (r *MatchRepository) Unlink(ctx context.Context, a, b uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(user_id = ? AND matched_user_id = ?) OR (user_id = ? AND matched_user_id = ?)", a, b, b, a).
		Delete(&db.Match{})
	return res.RowsAffected, res.Error
}

func (r *MatchRepository) IsMatched(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_id = ? AND matched_user_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

// MatchedIDs lists the user's matches, newest first.
func (r *MatchRepository) MatchedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, matched_user_id DESC").
		Pluck("matched_user_id", &ids).Error
	return ids, err
}
