package users

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/db"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/missions"
	"github.com/oggyb/swipe-server/internal/utils/geo"
)

const (
	searchLimit = 50
	dateLayout  = "2006-01-02"
)

// Service serves profiles and the follow/block graph.
type Service struct {
	appCtx     *app.AppContext
	userRepo   *repository.UserRepository
	socialRepo *repository.SocialRepository
	missions   *missions.Service
}

func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		userRepo:   repository.NewUserRepository(appCtx.DB),
		socialRepo: repository.NewSocialRepository(appCtx.DB),
		missions:   missions.NewMissionService(appCtx),
	}
}

// UpdateProfileRequest is a partial profile update; nil fields are left alone.
type UpdateProfileRequest struct {
	FullName           *string   `json:"fullName"`
	Bio                *string   `json:"bio"`
	BirthDate          *string   `json:"birthDate"`
	Gender             *string   `json:"gender"`
	InterestedIn       *string   `json:"interestedIn"`
	Height             *int      `json:"height"`
	Education          *string   `json:"education"`
	Religion           *string   `json:"religion"`
	Smoking            *string   `json:"smoking"`
	RelationshipIntent *string   `json:"relationshipIntent"`
	Interests          *[]string `json:"interests"`
	Gallery            *[]string `json:"gallery"`
	AutoReply          *string   `json:"autoReply"`
	SpotifyAnthem      *string   `json:"spotifyAnthem"`
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
}

// fields validates the request and returns the column updates.
func (req UpdateProfileRequest) fields() (map[string]any, error) {
	out := map[string]any{}

	str := func(col string, v *string, max int) error {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if len(s) > max {
			return svcErr.InvalidArgument(col + " is too long")
		}
		out[col] = s
		return nil
	}
	for _, f := range []struct {
		col string
		v   *string
		max int
	}{
		{"full_name", req.FullName, 128},
		{"bio", req.Bio, 1000},
		{"gender", req.Gender, 16},
		{"interested_in", req.InterestedIn, 16},
		{"education", req.Education, 64},
		{"religion", req.Religion, 64},
		{"smoking", req.Smoking, 32},
		{"relationship_intent", req.RelationshipIntent, 64},
		{"auto_reply", req.AutoReply, 500},
		{"spotify_anthem", req.SpotifyAnthem, 255},
	} {
		if err := str(f.col, f.v, f.max); err != nil {
			return nil, err
		}
	}
	for _, col := range []string{"gender", "interested_in"} {
		if v, ok := out[col].(string); ok {
			out[col] = db.NormalizeGender(v)
		}
	}

	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			out["birth_date"] = nil
		} else {
			t, err := time.Parse(dateLayout, *req.BirthDate)
			if err != nil {
				return nil, svcErr.InvalidArgument("birthDate must be YYYY-MM-DD")
			}
			out["birth_date"] = t
		}
	}
	if req.Height != nil {
		if *req.Height < 0 || *req.Height > 300 {
			return nil, svcErr.InvalidArgument("height must be between 0 and 300")
		}
		out["height"] = *req.Height
	}
	if req.Interests != nil {
		out["interests"] = datatypes.NewJSONSlice(*req.Interests)
	}
	if req.Gallery != nil {
		out["gallery"] = datatypes.NewJSONSlice(*req.Gallery)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, svcErr.InvalidArgument("latitude and longitude must be sent together")
	}
	if req.Latitude != nil {
		if !geo.ValidPoint(*req.Latitude, *req.Longitude) {
			return nil, svcErr.InvalidArgument("invalid coordinates")
		}
		out["latitude"] = *req.Latitude
		out["longitude"] = *req.Longitude
	}
	return out, nil
}

// Me returns the caller's own account view.
func (s *Service) Me(ctx context.Context, userID uint64) (*Me, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.socialRepo.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	me := &Me{
		Profile:        s.withPresence(ctx, Summary(u, s.appCtx.Now())),
		Email:          u.Email,
		InterestedIn:   u.InterestedIn,
		Coins:          u.Coins,
		Location:       Point{Latitude: u.Latitude, Longitude: u.Longitude},
		BoostExpiresAt: u.BoostExpiresAt,
		AutoReply:      u.AutoReply,
		Followers:      followers,
		Following:      following,
	}
	if u.BirthDate != nil {
		me.BirthDate = u.BirthDate.Format(dateLayout)
	}
	if u.TravelLatitude != nil && u.TravelLongitude != nil {
		me.TravelLocation = &Point{Latitude: *u.TravelLatitude, Longitude: *u.TravelLongitude}
	}
	return me, nil
}

// UpdateMe applies a partial update and bumps the updateProfile mission.
func (s *Service) UpdateMe(ctx context.Context, userID uint64, req UpdateProfileRequest) (*Me, error) {
	fields, err := req.fields()
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
		s.missions.TrackAll(ctx, userID, mission.UpdateProfile)
	}
	return s.Me(ctx, userID)
}

// List returns active users other than the caller and anyone on either side
// of a block, optionally filtered by a name search.
func (s *Service) List(ctx context.Context, userID uint64, search string) ([]Profile, error) {
	blocked, err := s.socialRepo.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.userRepo.Search(ctx, search, append(blocked, userID), searchLimit)
	if err != nil {
		return nil, err
	}
	return Summaries(list, s.appCtx.Now()), nil
}

// Get returns another user's profile. Blocked pairs look like missing users.
func (s *Service) Get(ctx context.Context, viewerID, userID uint64) (*ProfileDetail, error) {
	if viewerID != userID {
		blocked, err := s.socialRepo.IsBlockedEitherWay(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, svcErr.NotFound("user not found")
		}
	}

	u, err := s.userRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.socialRepo.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	isFollowing, err := s.socialRepo.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileDetail{
		Profile:     s.withPresence(ctx, Summary(u, s.appCtx.Now())),
		Followers:   followers,
		Following:   following,
		IsFollowing: isFollowing,
	}, nil
}

func (s *Service) Follow(ctx context.Context, userID, targetID uint64) error {
	if err := s.checkTarget(ctx, userID, targetID); err != nil {
		return err
	}
	blocked, err := s.socialRepo.IsBlockedEitherWay(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if blocked {
		return svcErr.Forbidden("cannot follow this user")
	}
	return s.socialRepo.Follow(ctx, userID, targetID)
}

func (s *Service) Unfollow(ctx context.Context, userID, targetID uint64) error {
	return s.socialRepo.Unfollow(ctx, userID, targetID)
}

// Block adds the block edge and drops follows both ways in one transaction.
func (s *Service) Block(ctx context.Context, userID, targetID uint64) error {
	if err := s.checkTarget(ctx, userID, targetID); err != nil {
		return err
	}
	return s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewSocialRepository(tx).Block(ctx, userID, targetID)
	})
}

func (s *Service) Unblock(ctx context.Context, userID, targetID uint64) error {
	return s.socialRepo.Unblock(ctx, userID, targetID)
}

func (s *Service) checkTarget(ctx context.Context, userID, targetID uint64) error {
	if userID == targetID {
		return svcErr.InvalidArgument("cannot target yourself")
	}
	_, err := s.userRepo.GetByID(ctx, targetID)
	return err
}

func (s *Service) withPresence(ctx context.Context, p Profile) Profile {
	online, err := s.appCtx.RedisCache.IsOnline(ctx, p.ID)
	if err != nil {
		s.appCtx.Logger.Debug("presence lookup failed", "user_id", p.ID, "err", err)
		return p
	}
	p.IsOnline = online
	return p
}
