package match

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/oggyb/swipe-server/internal/auth"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/utils/respond"
)

type targetRequest struct {
	TargetUserID uint64 `json:"targetUserId"`
	Message      string `json:"message"`
}

// parseDiscoveryQuery reads the discovery filters from the query string.
func parseDiscoveryQuery(v url.Values) (DiscoveryQuery, error) {
	var q DiscoveryQuery
	var err error

	intParam := func(name string, dst *int) {
		if err != nil || v.Get(name) == "" {
			return
		}
		n, convErr := strconv.Atoi(v.Get(name))
		if convErr != nil || n < 0 {
			err = svcErr.InvalidArgument(name + " must be a non-negative integer")
			return
		}
		*dst = n
	}
	intParam("minAge", &q.MinAge)
	intParam("maxAge", &q.MaxAge)
	intParam("heightMin", &q.HeightMin)
	intParam("heightMax", &q.HeightMax)
	if err != nil {
		return q, err
	}

	if raw := v.Get("distance"); raw != "" {
		d, convErr := strconv.ParseFloat(raw, 64)
		if convErr != nil || d <= 0 {
			return q, svcErr.InvalidArgument("distance must be a positive number")
		}
		q.Distance = d
	}
	if raw := v.Get("global"); raw != "" {
		g, convErr := strconv.ParseBool(raw)
		if convErr != nil {
			return q, svcErr.InvalidArgument("global must be a boolean")
		}
		q.Global = g
	}

	q.Gender = v.Get("gender")
	q.Education = v.Get("education")
	q.Religion = v.Get("religion")
	q.Smoking = v.Get("smoking")
	return q, nil
}

func (s *Service) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	q, err := parseDiscoveryQuery(r.URL.Query())
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	deck, err := s.Discovery(r.Context(), userID, q)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, deck)
}

func (s *Service) handleSwipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req SwipeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	res, err := s.Swipe(r.Context(), userID, req)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleInstantMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req targetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	res, err := s.InstantMatch(r.Context(), userID, req.TargetUserID, req.Message)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleRematch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req targetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	res, err := s.Rematch(r.Context(), userID, req.TargetUserID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleUnmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req targetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	if err := s.Unmatch(r.Context(), userID, req.TargetUserID); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.Message(w, http.StatusOK, "Unmatched")
}

func (s *Service) handleMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	list, err := s.Matches(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (s *Service) handleLikes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var token *string
	if t := r.URL.Query().Get("paginationToken"); t != "" {
		token = &t
	}
	page, err := s.Likes(r.Context(), userID, token)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (s *Service) handleLikesCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	n, err := s.LikesCount(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (s *Service) handleVisit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	targetID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	recorded, err := s.Visit(r.Context(), userID, targetID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"recorded": recorded})
}

func (s *Service) handleVisitors(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	list, err := s.Visitors(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (s *Service) handleBoost(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	until, err := s.Boost(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"message": "Boost activated", "boostExpiresAt": until})
}

func (s *Service) handleTravel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req TravelRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	res, err := s.Travel(r.Context(), userID, req)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleRewind(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	res, err := s.Rewind(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleResetDislikes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	res, err := s.ResetDislikes(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (s *Service) handleTopPicks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	list, err := s.TopPicks(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (s *Service) handleBlindDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	partner, err := s.BlindDate(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, partner)
}
