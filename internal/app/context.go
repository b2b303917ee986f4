package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/cache"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/storage"
)

// Publisher pushes realtime events to connected clients. Delivery is
// best-effort and never blocks the caller.
type Publisher interface {
	PublishToUser(userID uint64, event string, payload any)
	PublishToRoom(room string, event string, payload any, exceptUserID uint64)
}

type noopPublisher struct{}

func (noopPublisher) PublishToUser(uint64, string, any)         {}
func (noopPublisher) PublishToRoom(string, string, any, uint64) {}

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
// DB, RedisCache and Logger are required and never nil.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config

	// Messages is the direct message store (SQL unless Mongo is configured).
	Messages repository.MessageStore
	Storage  storage.Presigner
	Relay    Publisher

	// Now and Location define "today" for missions and visit gates.
	Now      func() time.Time
	Location *time.Location
}

// New creates a new AppContext with SQL message storage, S3 presigning and
// no realtime relay. Callers swap those in as needed.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
		Messages:   repository.NewMessageRepository(db),
		Storage:    storage.NewS3Presigner(cfg),
		Relay:      noopPublisher{},
		Now:        func() time.Time { return time.Now().UTC() },
		Location:   cfg.Location(),
	}
}
