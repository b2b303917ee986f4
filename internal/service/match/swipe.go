package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/db"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/repository"
)

// errAlreadySwiped rolls the swipe transaction back when the pair already
// carries the same action.
var errAlreadySwiped = errors.New("already swiped")

const maxSwipeMessage = 500

type SwipeRequest struct {
	TargetUserID uint64 `json:"targetUserId"`
	Action       string `json:"action"`
	Message      string `json:"message"`
}

type SwipeResult struct {
	Match         bool   `json:"match"`
	Superlike     bool   `json:"superlike"`
	AlreadySwiped bool   `json:"alreadySwiped"`
	Message       string `json:"message"`
}

// PaidResult is the reply of every coin-priced action.
type PaidResult struct {
	Message    string `json:"message"`
	NewBalance int64  `json:"newBalance"`
	Match      bool   `json:"match,omitempty"`
	UserID     uint64 `json:"userId,omitempty"`
	Removed    int64  `json:"removed,omitempty"`
}

func (s *Service) loadPair(ctx context.Context, userID, targetID uint64) (*db.User, *db.User, error) {
	if targetID == 0 {
		return nil, nil, svcErr.InvalidArgument("targetUserId is required")
	}
	if targetID == userID {
		return nil, nil, svcErr.InvalidArgument("cannot swipe on yourself")
	}
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.userRepo.GetActive(ctx, targetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, svcErr.NotFound("user not found")
		}
		return nil, nil, err
	}
	blocked, err := s.socialRepo.IsBlockedEitherWay(ctx, userID, targetID)
	if err != nil {
		return nil, nil, err
	}
	if blocked {
		return nil, nil, svcErr.Forbidden("cannot interact with this user")
	}
	return me, target, nil
}

// Swipe records userID's action on the target and resolves a match.
//
// Behavior:
//   - No record yet → insert; same action again → alreadySwiped, nothing written;
//     a different action → the record's type is overwritten.
//   - A unique violation from a concurrent insert is reported as alreadySwiped.
//   - `instant` is charged at the instant-match price in the same transaction.
//   - A positive action links the pair when the target already swiped
//     positively on the user; `instant` links unconditionally.
//   - After commit: like-count caches are dropped, mission counters bumped,
//     and a new match is announced with greetings.
func (s *Service) Swipe(ctx context.Context, userID uint64, req SwipeRequest) (*SwipeResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if !db.IsValidSwipe(action) {
		return nil, svcErr.InvalidArgument("invalid action")
	}
	if len(req.Message) > maxSwipeMessage {
		return nil, svcErr.InvalidArgument("message is too long")
	}
	me, target, err := s.loadPair(ctx, userID, req.TargetUserID)
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Debug("swipe", "user_id", userID, "target", target.ID, "action", action)

	var matched, created bool
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)

		existing, err := likes.Find(ctx, userID, target.ID)
		switch {
		case repository.IsNotFound(err):
			existing = nil
		case err != nil:
			return err
		case existing.Type == action:
			return errAlreadySwiped
		}

		if action == db.SwipeInstant {
			if _, err := repository.NewUserRepository(tx).ChargeCoins(ctx, userID, s.appCtx.Config.Pricing.InstantMatch); err != nil {
				return err
			}
		}

		if existing == nil {
			err = likes.Create(ctx, &db.Like{LikerID: userID, LikedID: target.ID, Type: action, Message: req.Message})
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadySwiped
			}
		} else {
			err = likes.UpdateType(ctx, existing.ID, action, req.Message)
		}
		if err != nil {
			return err
		}

		if !db.IsPositiveSwipe(action) {
			return nil
		}
		source := db.MatchInstant
		if action != db.SwipeInstant {
			source = db.MatchMutual
			matched, err = likes.HasPositive(ctx, target.ID, userID)
			if err != nil || !matched {
				return err
			}
		}
		matched = true
		created, err = repository.NewMatchRepository(tx).Link(ctx, userID, target.ID, source)
		return err
	})
	if errors.Is(err, errAlreadySwiped) {
		return &SwipeResult{AlreadySwiped: true, Message: "Already swiped on this user"}, nil
	}
	if err != nil {
		return nil, err
	}

	s.invalidateLikeCounts(ctx, userID, target.ID)

	tracked := []mission.Type{mission.SwipeTwenty}
	if action == db.SwipeSuperlike {
		tracked = append(tracked, mission.SendSuperLike)
	}
	s.missions.TrackAll(ctx, userID, tracked...)
	if db.IsPositiveSwipe(action) {
		s.missions.TrackAll(ctx, target.ID, mission.GetFirstLike)
	}

	if created {
		s.appCtx.Logger.Info("new match", "user_id", userID, "target", target.ID, "action", action)
		s.announceMatch(ctx, me, target, req.Message)
	}

	res := &SwipeResult{
		Match:     matched,
		Superlike: action == db.SwipeSuperlike,
		Message:   "Swipe recorded",
	}
	if matched {
		res.Message = "It's a match!"
	}
	return res, nil
}

// InstantMatch is a paid swipe that links the pair without reciprocity.
func (s *Service) InstantMatch(ctx context.Context, userID, targetID uint64, message string) (*SwipeResult, error) {
	return s.Swipe(ctx, userID, SwipeRequest{TargetUserID: targetID, Action: db.SwipeInstant, Message: message})
}

// Rematch force-matches a user the caller swiped on before. An existing
// match is reported without charging.
func (s *Service) Rematch(ctx context.Context, userID, targetID uint64) (*PaidResult, error) {
	me, target, err := s.loadPair(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	prior, err := s.likeRepo.Find(ctx, userID, target.ID)
	if repository.IsNotFound(err) {
		return nil, svcErr.NotFound("no previous swipe on this user")
	}
	if err != nil {
		return nil, err
	}

	already, err := s.matchRepo.IsMatched(ctx, userID, target.ID)
	if err != nil {
		return nil, err
	}
	if already {
		balance, err := s.userRepo.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &PaidResult{Message: "Already matched", NewBalance: balance, Match: true, UserID: target.ID}, nil
	}

	var balance int64
	var created bool
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = repository.NewUserRepository(tx).ChargeCoins(ctx, userID, s.appCtx.Config.Pricing.Rematch)
		if err != nil {
			return err
		}
		if !db.IsPositiveSwipe(prior.Type) {
			if err := repository.NewLikeRepository(tx).UpdateType(ctx, prior.ID, db.SwipeLike, prior.Message); err != nil {
				return err
			}
		}
		created, err = repository.NewMatchRepository(tx).Link(ctx, userID, target.ID, db.MatchRematch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLikeCounts(ctx, userID, target.ID)
	if created {
		s.announceMatch(ctx, me, target, "")
	}
	return &PaidResult{Message: "Rematched", NewBalance: balance, Match: true, UserID: target.ID}, nil
}

// Unmatch removes both match rows and turns the caller's record into a
// dislike so the user does not resurface in discovery.
func (s *Service) Unmatch(ctx context.Context, userID, targetID uint64) error {
	if targetID == 0 || targetID == userID {
		return svcErr.InvalidArgument("invalid targetUserId")
	}
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := repository.NewMatchRepository(tx).Unlink(ctx, userID, targetID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return svcErr.NotFound("not matched with this user")
		}
		return repository.NewLikeRepository(tx).CreateOrUpdate(ctx, userID, targetID, db.SwipeDislike)
	})
	if err != nil {
		return err
	}

	s.invalidateLikeCounts(ctx, userID, targetID)
	s.appCtx.Relay.PublishToUser(targetID, EventUnmatched, map[string]any{"userId": userID})
	return nil
}

// Rewind deletes the caller's most recent swipe record for a fee. Matches
// created by that swipe stay in place.
func (s *Service) Rewind(ctx context.Context, userID uint64) (*PaidResult, error) {
	var res PaidResult
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)
		latest, err := likes.Latest(ctx, userID)
		if repository.IsNotFound(err) {
			return svcErr.NotFound("nothing to rewind")
		}
		if err != nil {
			return err
		}
		res.NewBalance, err = repository.NewUserRepository(tx).ChargeCoins(ctx, userID, s.appCtx.Config.Pricing.Rewind)
		if err != nil {
			return err
		}
		res.UserID = latest.LikedID
		return likes.Delete(ctx, latest.ID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLikeCounts(ctx, userID, res.UserID)
	res.Message = "Last swipe rewound"
	return &res, nil
}

// ResetDislikes deletes every dislike the caller made for a fee. With no
// dislikes on record nothing is charged.
func (s *Service) ResetDislikes(ctx context.Context, userID uint64) (*PaidResult, error) {
	var res PaidResult
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)
		n, err := likes.CountByType(ctx, userID, db.SwipeDislike)
		if err != nil {
			return err
		}
		if n == 0 {
			return svcErr.InvalidArgument("no dislikes to reset")
		}
		res.NewBalance, err = repository.NewUserRepository(tx).ChargeCoins(ctx, userID, s.appCtx.Config.Pricing.ResetDislikes)
		if err != nil {
			return err
		}
		res.Removed, err = likes.DeleteByType(ctx, userID, db.SwipeDislike)
		return err
	})
	if err != nil {
		return nil, err
	}

	res.Message = fmt.Sprintf("%d dislikes reset", res.Removed)
	return &res, nil
}
