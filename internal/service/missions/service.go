package missions

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/app"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/repository"
)

// Service owns the daily mission ledger: counters, status and claims.
// Other services call Track as a side effect of their own actions.
type Service struct {
	appCtx      *app.AppContext
	missionRepo *repository.MissionRepository
}

func NewMissionService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		missionRepo: repository.NewMissionRepository(appCtx.DB),
	}
}

// ClaimResult is the reply of a successful claim.
type ClaimResult struct {
	Message    string `json:"message"`
	Reward     int64  `json:"reward"`
	NewBalance int64  `json:"newBalance"`
}

// Track bumps today's counter for t. Counters reset lazily when their day
// has passed and stay frozen once the mission is claimed today.
func (s *Service) Track(ctx context.Context, userID uint64, t mission.Type) error {
	now := s.appCtx.Now()

	p, err := s.missionRepo.Get(ctx, userID, t)
	if err != nil {
		return err
	}
	next, changed := p.Increment(now, s.appCtx.Location)
	if !changed {
		return nil
	}
	return s.missionRepo.Save(ctx, userID, t, next)
}

// TrackAll bumps several counters and logs failures. Mission counters are a
// side effect and never fail the calling request.
func (s *Service) TrackAll(ctx context.Context, userID uint64, types ...mission.Type) {
	for _, t := range types {
		if err := s.Track(ctx, userID, t); err != nil {
			s.appCtx.Logger.Warn("mission track failed", "user_id", userID, "mission", t, "err", err)
		}
	}
}

// Status evaluates every catalogue mission for the user.
func (s *Service) Status(ctx context.Context, userID uint64) (map[mission.Type]mission.Status, error) {
	now := s.appCtx.Now()

	stored, err := s.missionRepo.All(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[mission.Type]mission.Status, len(stored))
	for _, def := range mission.Catalogue() {
		out[def.Type] = stored[def.Type].Status(def, now, s.appCtx.Location)
	}
	return out, nil
}

// Claim grants the reward for missionType.
//
// Behavior:
//   - Unknown names fail with ErrUnknownMission.
//   - A second claim on the same calendar day fails with ErrAlreadyClaimed.
//   - Counted missions below their goal fail with ErrMissionNotCompleted.
//   - The claim stamp and the coin credit commit together.
func (s *Service) Claim(ctx context.Context, userID uint64, missionType string) (*ClaimResult, error) {
	def, ok := mission.Lookup(missionType)
	if !ok {
		return nil, svcErr.ErrUnknownMission
	}
	now := s.appCtx.Now()

	var balance int64
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		missions := repository.NewMissionRepository(tx)
		users := repository.NewUserRepository(tx)

		if _, err := users.GetByID(ctx, userID); err != nil {
			return err
		}

		p, err := missions.Get(ctx, userID, def.Type)
		if err != nil {
			return err
		}
		claimed, err := p.Claim(def, now, s.appCtx.Location)
		if err != nil {
			return err
		}
		if err := missions.Save(ctx, userID, def.Type, claimed); err != nil {
			return err
		}
		balance, err = users.AddCoins(ctx, userID, def.Reward)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("mission claimed", "user_id", userID, "mission", def.Type, "reward", def.Reward)

	return &ClaimResult{
		Message:    fmt.Sprintf("Reward claimed: %d coins", def.Reward),
		Reward:     def.Reward,
		NewBalance: balance,
	}, nil
}

// DailyLogin stamps the login time and claims the dailyLogin reward.
func (s *Service) DailyLogin(ctx context.Context, userID uint64) (*ClaimResult, error) {
	if err := repository.NewUserRepository(s.appCtx.DB).TouchLogin(ctx, userID, s.appCtx.Now()); err != nil {
		return nil, err
	}
	return s.Claim(ctx, userID, string(mission.DailyLogin))
}
