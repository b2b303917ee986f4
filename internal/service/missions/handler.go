package missions

import (
	"net/http"

	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/utils/respond"
)

type claimRequest struct {
	MissionType string `json:"missionType"`
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	status, err := s.Status(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, status)
}

func (s *Service) handleClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req claimRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	s.writeClaim(w, r, userID, req.MissionType)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	res, err := s.DailyLogin(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	s.writeClaim(w, r, userID, string(mission.ShareApp))
}

func (s *Service) writeClaim(w http.ResponseWriter, r *http.Request, userID uint64, missionType string) {
	res, err := s.Claim(r.Context(), userID, missionType)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
