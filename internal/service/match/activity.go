package match

import (
	"context"
	"errors"
	"time"

	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/users"
	"github.com/oggyb/swipe-server/internal/utils/geo"
	"github.com/oggyb/swipe-server/internal/utils/pagination"
)

const (
	likesPageSize = 20
	visitorsLimit = 50
	visitGateTTL  = 24 * time.Hour
)

// Liker is one entry of the "liked you" list.
type Liker struct {
	User    users.Profile `json:"user"`
	Type    string        `json:"type"`
	LikedAt int64         `json:"likedAt"`
}

type LikesPage struct {
	Likes               []Liker `json:"likes"`
	NextPaginationToken *string `json:"nextPaginationToken,omitempty"`
}

// Likes returns users who swiped positively on userID and are still waiting
// for userID's decision, newest first.
//
// Behavior:
//   - Excludes users userID already swiped on and blocks in either direction.
//   - Supports cursor-based pagination with paginationToken.
func (s *Service) Likes(ctx context.Context, userID uint64, paginationToken *string) (*LikesPage, error) {
	s.appCtx.Logger.Debug("Likes called", "user_id", userID, "token", paginationToken)

	records, next, err := s.likeRepo.GetLikers(ctx, userID, paginationToken, likesPageSize)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidToken) {
			return nil, svcErr.InvalidArgument("invalid paginationToken")
		}
		return nil, err
	}

	ids := make([]uint64, 0, len(records))
	for _, l := range records {
		ids = append(ids, l.LikerID)
	}
	found, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.appCtx.Now()
	profiles := make(map[uint64]users.Profile, len(found))
	for i := range found {
		profiles[found[i].ID] = users.Summary(&found[i], now)
	}

	page := &LikesPage{Likes: make([]Liker, 0, len(records)), NextPaginationToken: next}
	for _, l := range records {
		p, ok := profiles[l.LikerID]
		if !ok {
			continue
		}
		page.Likes = append(page.Likes, Liker{User: p, Type: l.Type, LikedAt: l.UpdatedAt.UnixMilli()})
	}
	return page, nil
}

// LikesCount returns how many users are waiting in the "liked you" list.
// Cache-first strategy:
//  1. Read likes:count:<user> from Redis (a hit refreshes the 1h TTL).
//  2. On a miss or Redis error, count in the DB.
//  3. Store the DB count back with a 1h TTL.
func (s *Service) LikesCount(ctx context.Context, userID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user_id", userID, "err", err)
	}

	count, err := s.likeRepo.CountLikers(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.SetLikeCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "user_id", userID, "err", err)
	}
	return count, nil
}

// Matches lists the user's matches, newest first.
func (s *Service) Matches(ctx context.Context, userID uint64) ([]users.Profile, error) {
	ids, err := s.matchRepo.MatchedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return users.Summaries(list, s.appCtx.Now()), nil
}

// Visit logs a profile view at most once per visitor, profile and day.
// Visiting yourself is a no-op. recorded reports whether a row was written.
func (s *Service) Visit(ctx context.Context, visitorID, visitedID uint64) (recorded bool, err error) {
	if visitorID == visitedID {
		return false, nil
	}
	if _, err := s.userRepo.GetActive(ctx, visitedID); err != nil {
		if repository.IsNotFound(err) {
			return false, svcErr.NotFound("user not found")
		}
		return false, err
	}

	key := s.appCtx.RedisCache.KeyForVisit(visitorID, visitedID, s.today())
	first, err := s.appCtx.RedisCache.HitOnce(ctx, key, visitGateTTL)
	if err != nil {
		// without the gate a duplicate row is possible, which the distinct
		// visitor list tolerates
		s.appCtx.Logger.Warn("visit gate failed", "key", key, "err", err)
		first = true
	}
	if !first {
		return false, nil
	}

	if err := s.visitRepo.Record(ctx, visitorID, visitedID, s.appCtx.Now()); err != nil {
		return false, err
	}
	s.appCtx.Relay.PublishToUser(visitedID, EventProfileVisited, map[string]any{"userId": visitorID})
	return true, nil
}

// Visitor is one entry of the visitors list.
type Visitor struct {
	User      users.Profile `json:"user"`
	VisitedAt time.Time     `json:"visitedAt"`
}

// Visitors returns the last 50 distinct visitors, most recent first.
func (s *Service) Visitors(ctx context.Context, userID uint64) ([]Visitor, error) {
	visits, err := s.visitRepo.RecentVisitors(ctx, userID, visitorsLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.UserID)
	}
	found, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.appCtx.Now()
	byID := make(map[uint64]users.Profile, len(found))
	for i := range found {
		byID[found[i].ID] = users.Summary(&found[i], now)
	}
	out := make([]Visitor, 0, len(visits))
	for _, v := range visits {
		if p, ok := byID[v.UserID]; ok {
			out = append(out, Visitor{User: p, VisitedAt: v.VisitedAt})
		}
	}
	return out, nil
}

// Boost puts the user in the boosted discovery pool for BoostDuration.
func (s *Service) Boost(ctx context.Context, userID uint64) (time.Time, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return time.Time{}, err
	}
	until := s.appCtx.Now().Add(s.appCtx.Config.Discovery.BoostDuration)
	if err := s.userRepo.SetBoost(ctx, userID, until); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

type TravelRequest struct {
	Enabled   bool     `json:"enabled"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type TravelResult struct {
	TravelMode bool         `json:"travelMode"`
	Location   *users.Point `json:"location,omitempty"`
}

// Travel sets or clears the location override discovery measures from.
func (s *Service) Travel(ctx context.Context, userID uint64, req TravelRequest) (*TravelResult, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if !req.Enabled {
		if err := s.userRepo.SetTravel(ctx, userID, nil, nil); err != nil {
			return nil, err
		}
		return &TravelResult{}, nil
	}

	if req.Latitude == nil || req.Longitude == nil {
		return nil, svcErr.InvalidArgument("latitude and longitude are required")
	}
	lat, lng := *req.Latitude, *req.Longitude
	if !geo.ValidPoint(lat, lng) {
		return nil, svcErr.InvalidArgument("invalid coordinates")
	}
	if err := s.userRepo.SetTravel(ctx, userID, &lat, &lng); err != nil {
		return nil, err
	}
	return &TravelResult{TravelMode: true, Location: &users.Point{Latitude: lat, Longitude: lng}}, nil
}
