// Package match implements discovery, the swipe/match resolver and the paid
// match actions.
package match

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/missions"
)

// Relay event names published by this package.
const (
	EventMatch           = "match"
	EventUnmatched       = "unmatched"
	EventMessageReceived = "message received"
	EventProfileVisited  = "profile visited"
)

// Service contains the match business logic on top of the repositories,
// the Redis cache and the realtime relay.
type Service struct {
	appCtx     *app.AppContext
	likeRepo   *repository.LikeRepository
	userRepo   *repository.UserRepository
	matchRepo  *repository.MatchRepository
	socialRepo *repository.SocialRepository
	visitRepo  *repository.VisitRepository
	missions   *missions.Service
}

// NewMatchService creates a new match service with dependencies from AppContext.
func NewMatchService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		likeRepo:   repository.NewLikeRepository(appCtx.DB),
		userRepo:   repository.NewUserRepository(appCtx.DB),
		matchRepo:  repository.NewMatchRepository(appCtx.DB),
		socialRepo: repository.NewSocialRepository(appCtx.DB),
		visitRepo:  repository.NewVisitRepository(appCtx.DB),
		missions:   missions.NewMissionService(appCtx),
	}
}

// exclusions is everyone discovery must never show: the user, everyone the
// user has a swipe record for and both sides of every block.
func (s *Service) exclusions(ctx context.Context, userID uint64) ([]uint64, error) {
	swiped, err := s.likeRepo.SwipedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.socialRepo.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(swiped)+len(blocked)+1)
	out = append(out, userID)
	out = append(out, swiped...)
	return append(out, blocked...), nil
}

// invalidateLikeCounts drops cached liked-you counts after a ledger write.
func (s *Service) invalidateLikeCounts(ctx context.Context, userIDs ...uint64) {
	if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, userIDs...); err != nil {
		s.appCtx.Logger.Warn("like count invalidation failed", "users", userIDs, "err", err)
	}
}

// sendGreeting stores a chat message and relays it. The match is already
// committed, so failures are logged and swallowed.
func (s *Service) sendGreeting(ctx context.Context, from, to uint64, body string) {
	now := s.appCtx.Now()
	msg := &db.Message{
		ID:         uuid.NewString(),
		SenderID:   from,
		ReceiverID: to,
		Body:       body,
		Type:       db.MessageText,
		CreatedAt:  now,
	}
	if err := s.appCtx.Messages.Save(ctx, msg); err != nil {
		s.appCtx.Logger.Error("greeting not stored", "from", from, "to", to, "err", err)
		return
	}
	s.appCtx.Relay.PublishToUser(to, EventMessageReceived, msg)
}

// announceMatch tells both users about a new match and sends greetings:
// the swiper's own message plus any auto-replies.
func (s *Service) announceMatch(ctx context.Context, swiper, target *db.User, message string) {
	at := s.appCtx.Now().UnixMilli()
	s.appCtx.Relay.PublishToUser(swiper.ID, EventMatch, map[string]any{"userId": target.ID, "matchedAt": at})
	s.appCtx.Relay.PublishToUser(target.ID, EventMatch, map[string]any{"userId": swiper.ID, "matchedAt": at})

	if message != "" {
		s.sendGreeting(ctx, swiper.ID, target.ID, message)
	}
	if target.AutoReply != "" {
		s.sendGreeting(ctx, target.ID, swiper.ID, target.AutoReply)
	}
	if swiper.AutoReply != "" {
		s.sendGreeting(ctx, swiper.ID, target.ID, swiper.AutoReply)
	}
}

func (s *Service) today() string {
	return s.appCtx.Now().In(s.appCtx.Location).Format(time.DateOnly)
}
