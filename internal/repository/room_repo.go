package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/db"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(database *gorm.DB) *RoomRepository {
	return &RoomRepository{db: database}
}

func (r *RoomRepository) Create(ctx context.Context, room *db.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *RoomRepository) Get(ctx context.Context, id uint64) (*db.Room, error) {
	var room db.Room
	if err := r.db.WithContext(ctx).Take(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// ListActive returns active rooms, optionally narrowed to a category.
func (r *RoomRepository) ListActive(ctx context.Context, category string, limit int) ([]db.Room, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var rooms []db.Room
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rooms).Error
	return rooms, err
}

// Join adds the user to the room. joined is false when already a member.
func (r *RoomRepository) Join(ctx context.Context, roomID, userID uint64) (joined bool, err error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.RoomParticipant{RoomID: roomID, UserID: userID})
	return res.RowsAffected > 0, res.Error
}

func (r *RoomRepository) Leave(ctx context.Context, roomID, userID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&db.RoomParticipant{})
	return res.RowsAffected > 0, res.Error
}

func (r *RoomRepository) IsParticipant(ctx context.Context, roomID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.RoomParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *RoomRepository) ParticipantIDs(ctx context.Context, roomID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&db.RoomParticipant{}).
		Where("room_id = ?", roomID).
		Order("joined_at, user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *RoomRepository) CountParticipants(ctx context.Context, roomID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.RoomParticipant{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// ParticipantCounts returns the member count of each room in roomIDs.
// Rooms without members are absent from the map.
func (r *RoomRepository) ParticipantCounts(ctx context.Context, roomIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		RoomID uint64
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&db.RoomParticipant{}).
		Select("room_id, COUNT(*) AS total").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.RoomID] = row.Total
	}
	return counts, nil
}

func (r *RoomRepository) AddMessage(ctx context.Context, msg *db.RoomMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// Messages returns the latest limit messages in chronological order.
func (r *RoomRepository) Messages(ctx context.Context, roomID uint64, limit int) ([]db.RoomMessage, error) {
	var msgs []db.RoomMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
