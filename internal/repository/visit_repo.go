package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/db"
)

// visitScanWindow caps how many log rows are read to build the visitor list.
const visitScanWindow = 500

// VisitRepository is the profile visit log. It is the only source of
// "who viewed me"; nothing is denormalized onto the user row.
type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(database *gorm.DB) *VisitRepository {
	return &VisitRepository{db: database}
}

func (r *VisitRepository) Record(ctx context.Context, visitorID, visitedID uint64, at time.Time) error {
	return r.db.WithContext(ctx).Create(&db.Visit{
		VisitorID: visitorID,
		VisitedID: visitedID,
		VisitedAt: at,
	}).Error
}

// Visitor is one distinct visitor with the time of their latest visit.
type Visitor struct {
	UserID    uint64
	VisitedAt time.Time
}

// RecentVisitors returns up to limit distinct visitors, most recent first.
func (r *VisitRepository) RecentVisitors(ctx context.Context, visitedID uint64, limit int) ([]Visitor, error) {
	var rows []db.Visit
	err := r.db.WithContext(ctx).
		Where("visited_id = ?", visitedID).
		Order("visited_at DESC, id DESC").
		Limit(visitScanWindow).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{}, len(rows))
	out := make([]Visitor, 0, limit)
	for _, v := range rows {
		if _, ok := seen[v.VisitorID]; ok {
			continue
		}
		seen[v.VisitorID] = struct{}{}
		out = append(out, Visitor{UserID: v.VisitorID, VisitedAt: v.VisitedAt})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
