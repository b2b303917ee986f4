package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/db"
)

// conversationScanWindow caps the rows read to build the conversation list.
const conversationScanWindow = 1000

// MessageStore persists direct messages. The SQL store is the default;
// MongoStore is used when a Mongo URI is configured.
type MessageStore interface {
	Save(ctx context.Context, msg *db.Message) error
	// Conversation returns the non-expired messages between a and b,
	// oldest first, optionally filtered by a case-insensitive search term.
	Conversation(ctx context.Context, a, b uint64, search string, now time.Time) ([]db.Message, error)
	// MarkRead flags everything sender sent to receiver as read.
	MarkRead(ctx context.Context, receiverID, senderID uint64, at time.Time) error
	// Latest returns the newest non-expired message per conversation partner,
	// newest conversation first.
	Latest(ctx context.Context, userID uint64, now time.Time) ([]db.Message, error)
}

// MessageRepository is the GORM MessageStore.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Save(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *MessageRepository) Conversation(ctx context.Context, a, b uint64, search string, now time.Time) ([]db.Message, error) {
	query := r.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a).
		Where("(expire_at IS NULL OR expire_at > ?)", now)
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(body) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var msgs []db.Message
	err := query.Order("created_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
}

func (r *MessageRepository) Latest(ctx context.Context, userID uint64, now time.Time) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?)", userID, userID).
		Where("(expire_at IS NULL OR expire_at > ?)", now).
		Order("created_at DESC, id DESC").
		Limit(conversationScanWindow).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return latestPerPartner(userID, msgs), nil
}

// latestPerPartner keeps the first message seen per partner of a
// newest-first list.
func latestPerPartner(userID uint64, msgs []db.Message) []db.Message {
	seen := make(map[uint64]struct{})
	out := make([]db.Message, 0)
	for _, m := range msgs {
		partner := m.ReceiverID
		if partner == userID {
			partner = m.SenderID
		}
		if _, ok := seen[partner]; ok {
			continue
		}
		seen[partner] = struct{}{}
		out = append(out, m)
	}
	return out
}
