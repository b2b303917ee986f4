package users

import (
	"context"
	"net/http"

	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/utils/respond"
)

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	me, err := s.Me(r.Context(), userID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, me)
}

func (s *Service) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	me, err := s.UpdateMe(r.Context(), userID, req)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, me)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	list, err := s.List(r.Context(), userID, r.URL.Query().Get("search"))
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	targetID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	p, err := s.Get(r.Context(), userID, targetID)
	if err != nil {
		respond.Error(w, s.appCtx.Logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// edgeHandler serves the follow/block style operations, which only need
// the caller and the path id.
func (s *Service) edgeHandler(op func(ctx context.Context, userID, targetID uint64) error, okMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		targetID, err := respond.PathID(r, "id")
		if err != nil {
			respond.Error(w, s.appCtx.Logger, err)
			return
		}
		if err := op(r.Context(), userID, targetID); err != nil {
			respond.Error(w, s.appCtx.Logger, err)
			return
		}
		respond.Message(w, http.StatusOK, okMsg)
	}
}
