package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/mission"
)

type MissionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(database *gorm.DB) *MissionRepository {
	return &MissionRepository{db: database}
}

// Get returns the stored progress, or a zero Progress if none exists yet.
func (r *MissionRepository) Get(ctx context.Context, userID uint64, t mission.Type) (mission.Progress, error) {
	var rows []db.MissionProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND mission = ?", userID, string(t)).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return mission.Progress{}, err
	}
	return toProgress(rows[0]), nil
}

// All returns every stored progress row for the user keyed by mission.
func (r *MissionRepository) All(ctx context.Context, userID uint64) (map[mission.Type]mission.Progress, error) {
	var rows []db.MissionProgress
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[mission.Type]mission.Progress, len(rows))
	for _, row := range rows {
		out[mission.Type(row.Mission)] = toProgress(row)
	}
	return out, nil
}

// Save upserts the progress row.
func (r *MissionRepository) Save(ctx context.Context, userID uint64, t mission.Type, p mission.Progress) error {
	row := db.MissionProgress{
		UserID:      userID,
		Mission:     string(t),
		Count:       p.Count,
		CountedAt:   p.CountedAt,
		LastClaimAt: p.LastClaimAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "mission"}},
			DoUpdates: clause.AssignmentColumns([]string{"count", "counted_at", "last_claim_at", "updated_at"}),
		}).
		Create(&row).Error
}

func toProgress(row db.MissionProgress) mission.Progress {
	return mission.Progress{
		Count:       row.Count,
		CountedAt:   row.CountedAt,
		LastClaimAt: row.LastClaimAt,
	}
}
